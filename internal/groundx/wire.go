package groundx

import (
	"bytes"
	"encoding/json"
)

// flexID decodes a remote identifier that may arrive as a JSON string
// or a JSON number. GroundX responses have used both over time.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// firstID returns the first non-empty identifier among the variants.
func firstID(ids ...flexID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// wireGroup mirrors a group/project object as the API serializes it.
// Field variants are mapped to the canonical Project exactly once,
// here, rather than probed at call sites.
type wireGroup struct {
	GroupID   flexID       `json:"groupId"`
	ID        flexID       `json:"id"`
	GroupName string       `json:"groupName"`
	Name      string       `json:"name"`
	Buckets   []wireBucket `json:"buckets"`
}

func (g wireGroup) canonical() Project {
	p := Project{
		ID:      firstID(g.GroupID, g.ID),
		Name:    firstString(g.GroupName, g.Name),
		Buckets: make([]Bucket, 0, len(g.Buckets)),
	}
	for _, b := range g.Buckets {
		p.Buckets = append(p.Buckets, b.canonical())
	}
	return p
}

// wireBucket mirrors a bucket object as the API serializes it.
type wireBucket struct {
	BucketID   flexID `json:"bucketId"`
	ID         flexID `json:"id"`
	BucketName string `json:"bucketName"`
	Name       string `json:"name"`
	GroupID    flexID `json:"groupId"`
	ProjectID  flexID `json:"projectId"`
}

func (b wireBucket) canonical() Bucket {
	return Bucket{
		ID:        firstID(b.BucketID, b.ID),
		Name:      firstString(b.BucketName, b.Name),
		ProjectID: firstID(b.GroupID, b.ProjectID),
	}
}

// Some deployments answer list calls under "groups", others under
// "projects"; both are accepted.
type listGroupsResponse struct {
	Groups   []wireGroup `json:"groups"`
	Projects []wireGroup `json:"projects"`
}

type getGroupResponse struct {
	Group *wireGroup `json:"group"`
}

type listBucketsResponse struct {
	Buckets []wireBucket `json:"buckets"`
}

type getBucketResponse struct {
	Bucket *wireBucket `json:"bucket"`
}

type searchRequest struct {
	Query  string         `json:"query"`
	N      int            `json:"n,omitempty"`
	Filter map[string]any `json:"filter,omitempty"`
}

// wireSearchResult tolerates the content-field variants the search
// endpoint has returned: text, content, and suggestedText.
type wireSearchResult struct {
	DocumentID    flexID  `json:"documentId"`
	Score         float64 `json:"score"`
	Text          string  `json:"text"`
	Content       string  `json:"content"`
	SuggestedText string  `json:"suggestedText"`
	FileName      string  `json:"fileName"`
	Title         string  `json:"title"`
	SourceURL     string  `json:"sourceUrl"`
}

func (r wireSearchResult) canonical() SearchResult {
	return SearchResult{
		DocumentID: r.DocumentID.String(),
		Score:      r.Score,
		Text:       firstString(r.Text, r.Content, r.SuggestedText),
		Title:      firstString(r.Title, r.FileName),
		SourceURL:  r.SourceURL,
	}
}

type searchEnvelope struct {
	Search struct {
		Results []wireSearchResult `json:"results"`
	} `json:"search"`
}
