package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/ports"
)

// Mask replaces a redacted text answer.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks the free-text answers of nodes whose ID matches any of
// the patterns before saving. Choices are option keys from the graph and are kept.
// The caller's snapshot is not modified.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap domain.Snapshot) error {
	masked := domain.Snapshot{Version: snap.Version, State: *snap.State.Clone()}
	m.mask(masked.Answers.Texts)
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(texts map[string]string) {
	for nodeID := range texts {
		for _, p := range m.patterns {
			if p.MatchString(nodeID) {
				texts[nodeID] = Mask
				break
			}
		}
	}
}
