package textgen

import (
	"context"
	"fmt"
	"strings"

	"pkm/internal/pkm"
)

// OfflineGenerator fills fixed templates from the request. The same request
// always yields the same content, which makes it a safe fallback and a
// predictable test double.
type OfflineGenerator struct {
	clock pkm.Clock
}

var _ pkm.TextGenerator = (*OfflineGenerator)(nil)

func NewOfflineGenerator(clock pkm.Clock) *OfflineGenerator {
	if clock == nil {
		clock = pkm.RealClock{}
	}
	return &OfflineGenerator{clock: clock}
}

var outlineSections = []string{
	"Overview", "Key points", "Takeaways", "Background", "Examples", "Open questions", "Further reading",
}

// points is how many sections, sentences or bullets a length allows.
func points(l pkm.LengthHint) int {
	switch l {
	case pkm.LengthShort:
		return 1
	case pkm.LengthLong:
		return 5
	default:
		return 3
	}
}

func (g *OfflineGenerator) Generate(ctx context.Context, req pkm.GenerateRequest) (*pkm.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subject := subjectOf(req.Subject, req.Prompt)
	n := points(req.LengthHint)
	body := sentences(req.Prompt)

	var content string
	switch req.Type {
	case pkm.GenerateSummary:
		content = offlineSummary(subject, body, n)
	case pkm.GenerateOutline:
		content = offlineOutline(subject, n)
	case pkm.GenerateStudyNotes:
		content = offlineStudyNotes(subject, body, n)
	case pkm.GenerateBlogPost:
		content = offlineBlogPost(subject, body, n)
	case pkm.GenerateSocialPost:
		content = offlineSocialPost(subject, body)
	case pkm.GeneratePitch:
		content = offlinePitch(subject, body)
	}

	return &pkm.GenerateResult{
		Content: content,
		Metadata: pkm.GenerateMetadata{
			Source:      SourceOffline,
			Type:        req.Type,
			LengthHint:  req.LengthHint,
			WordCount:   wordCount(content),
			GeneratedAt: g.clock.Now(),
		},
	}, nil
}

func take(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func offlineSummary(subject string, body []string, n int) string {
	picked := take(body, n)
	if len(picked) == 0 {
		return fmt.Sprintf("%s: no details were provided.", subject)
	}
	return fmt.Sprintf("%s: %s", subject, strings.Join(picked, " "))
}

func offlineOutline(subject string, n int) string {
	sections := take(outlineSections, n+2)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", subject)
	for i, s := range sections {
		fmt.Fprintf(&b, "\n%d. %s", i+1, s)
	}
	return b.String()
}

func offlineStudyNotes(subject string, body []string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Study notes: %s\n", subject)
	for _, s := range take(body, n) {
		fmt.Fprintf(&b, "\n- %s", s)
	}
	fmt.Fprintf(&b, "\n- Review: explain %s in your own words.", subject)
	return b.String()
}

func offlineBlogPost(subject string, body []string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", subject)
	if len(body) > 0 {
		b.WriteString(body[0])
	} else {
		fmt.Fprintf(&b, "Notes on %s.", subject)
	}
	for _, s := range take(outlineSections[1:], n) {
		fmt.Fprintf(&b, "\n\n## %s\n\nWhat %s means for %s.", s, strings.ToLower(s), subject)
	}
	return b.String()
}

const socialPostLimit = 280

func offlineSocialPost(subject string, body []string) string {
	post := subject
	if len(body) > 0 {
		post = subject + ": " + body[0]
	}
	if r := []rune(post); len(r) > socialPostLimit {
		post = string(r[:socialPostLimit-3]) + "..."
	}
	return post
}

func offlinePitch(subject string, body []string) string {
	problem := "The problem is worth solving."
	if len(body) > 0 {
		problem = body[0]
	}
	return fmt.Sprintf("%s\n\nProblem: %s\nSolution: %s.\nAsk: a conversation about next steps.", subject, problem, subject)
}
