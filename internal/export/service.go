package export

import (
	"strings"
	"time"

	"github.com/agentic-research/tagtree/internal/collection"
	"github.com/agentic-research/tagtree/internal/config"
)

// Service is a named set of filter criteria. Each run exports the tags of one service.
type Service struct {
	Name        string
	DisplayName string
	Filter      collection.Filter
}

// NewService resolves name against cfg. Unknown names fail with the list of
// available services.
func NewService(cfg *config.Config, name string) (Service, error) {
	sc, err := cfg.Service(name)
	if err != nil {
		return Service{}, err
	}
	return Service{Name: name, DisplayName: sc.DisplayName, Filter: sc.Filter}, nil
}

// AllTagsService is the unfiltered built-in service.
func AllTagsService() Service {
	return Service{Name: config.AllTags, DisplayName: "All Tags Export"}
}

// Accept reports whether tag passes the service filter.
func (s Service) Accept(tag string) bool { return s.Filter.Match(tag) }

// Slug is the file-name form of the display name.
func (s Service) Slug() string {
	name := s.DisplayName
	if name == "" {
		name = s.Name
	}
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "&", "and")
}

const fileStamp = "20060102_150405"

// FileName returns "<slug>_<user>_<YYYYMMDD_HHMMSS>.ndjson.gz".
func (s Service) FileName(username string, at time.Time) string {
	return s.Slug() + "_" + userPart(username) + "_" + at.Format(fileStamp) + ".ndjson.gz"
}

// UnifiedFileName returns "unified_export_<YYYYMMDD_HHMMSS>.ndjson.gz".
func UnifiedFileName(at time.Time) string {
	return "unified_export_" + at.Format(fileStamp) + ".ndjson.gz"
}

func userPart(username string) string {
	u, _, _ := strings.Cut(strings.TrimSpace(username), "@")
	if u == "" {
		return "user"
	}
	return u
}
