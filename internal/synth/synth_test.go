package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/futurumpress/newsgen/internal/config"
	"github.com/futurumpress/newsgen/internal/llm"
)

// scriptedGen replays canned responses and records every request.
type scriptedGen struct {
	responses []string
	errs      []error
	calls     []llm.Request
	strict    []bool
}

func (g *scriptedGen) Generate(_ context.Context, req llm.Request, strict bool) (string, error) {
	i := len(g.calls)
	g.calls = append(g.calls, req)
	g.strict = append(g.strict, strict)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return g.responses[len(g.responses)-1], nil
}

func (g *scriptedGen) Close() {}

func testProfile() *config.Profile {
	p := &config.Profile{}
	p.Prompts.System = "системная установка"
	p.Prompts.User = "Тема: {topic}\nКонтекст:\n{context}"
	p.Tags.Extra = "психоанализ"
	return p
}

func TestGenerateOne_StrictJSONFirstTry(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		`{"title":"Город перемен","section":"list","tags":"город","text":"<p>Текст статьи.</p>"}`,
	}}
	s := New(gen, nil, nil, testProfile(), nil)

	art, err := s.GenerateOne(context.Background(), "урбанистика", "дайджест")
	if err != nil {
		t.Fatal(err)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("made %d calls, want 1", len(gen.calls))
	}
	if !gen.strict[0] {
		t.Error("first call should request strict JSON")
	}
	if !strings.Contains(gen.calls[0].User, "Тема: урбанистика") || !strings.Contains(gen.calls[0].User, "дайджест") {
		t.Errorf("prompt placeholders not rendered: %q", gen.calls[0].User)
	}
	if art.Title != "Город перемен" {
		t.Errorf("Title = %q", art.Title)
	}
	if art.Slug != "gorod-peremen" {
		t.Errorf("Slug = %q", art.Slug)
	}
	if art.Tags != "город,психоанализ" {
		t.Errorf("Tags = %q, want merged extra tags", art.Tags)
	}
	if art.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestGenerateOne_FencedJSONAccepted(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		"```json\n{\"title\":\"Т\",\"section\":\"list\",\"tags\":\"т\",\"text\":\"<p>x</p>\"}\n```",
	}}
	s := New(gen, nil, nil, testProfile(), nil)

	art, err := s.GenerateOne(context.Background(), "тема", "")
	if err != nil {
		t.Fatal(err)
	}
	if art.Title != "Т" || len(gen.calls) != 1 {
		t.Errorf("fenced JSON should parse on the first call, got %q after %d calls", art.Title, len(gen.calls))
	}
}

func TestGenerateOne_SecondTierRecovery(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		"Вот ваша статья: неформатированный ответ",
		`{"title":"Восстановлено","section":"list","tags":"т","text":"<p>x</p>"}`,
	}}
	s := New(gen, nil, nil, testProfile(), nil)

	art, err := s.GenerateOne(context.Background(), "тема", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("made %d calls, want 2", len(gen.calls))
	}
	if gen.strict[1] {
		t.Error("retry call should be plain, not strict")
	}
	if !strings.Contains(gen.calls[1].User, "СТРОГО один JSON-объект") {
		t.Errorf("retry prompt lacks JSON instruction: %q", gen.calls[1].User)
	}
	if art.Title != "Восстановлено" {
		t.Errorf("Title = %q", art.Title)
	}
}

func TestGenerateOne_HeuristicRebuild(t *testing.T) {
	raw := "Заголовок из первой строки\n\nПервый абзац текста.\n\nВторой абзац."
	gen := &scriptedGen{responses: []string{raw, raw}}
	s := New(gen, nil, nil, testProfile(), nil)

	art, err := s.GenerateOne(context.Background(), "тема", "")
	if err != nil {
		t.Fatal(err)
	}
	if art.Title != "Заголовок из первой строки" {
		t.Errorf("Title = %q, want first line", art.Title)
	}
	if !strings.Contains(art.Text, "<p>Второй абзац.</p>") {
		t.Errorf("blocks not wrapped: %q", art.Text)
	}
}

func TestGenerateOne_BothCallsFail(t *testing.T) {
	boom := errors.New("backend down")
	gen := &scriptedGen{errs: []error{boom, boom}, responses: []string{""}}
	s := New(gen, nil, nil, testProfile(), nil)

	if _, err := s.GenerateOne(context.Background(), "тема", ""); err == nil {
		t.Fatal("expected error when both attempts fail")
	}
}

func TestGenerateOne_NormalizesPayload(t *testing.T) {
	longTitle := strings.Repeat("ц", 200)
	gen := &scriptedGen{responses: []string{
		`{"title":"` + longTitle + `","section":"hero","tags":"","text":"Просто текст без разметки."}`,
	}}
	s := New(gen, nil, nil, testProfile(), nil)

	art, err := s.GenerateOne(context.Background(), "тема", "")
	if err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(art.Title)); n > 120 {
		t.Errorf("title not clamped: %d runes", n)
	}
	if !strings.HasPrefix(art.Text, "<p>") {
		t.Errorf("plain text not promoted to markup: %q", art.Text)
	}
	if !strings.Contains(art.Tags, "тема") {
		t.Errorf("empty tags should fall back to the topic: %q", art.Tags)
	}
}

func TestBatch_FirstArticleIsMain(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		`{"title":"Один","section":"list","tags":"т","text":"<p>x</p>"}`,
		`{"title":"Два","section":"main","tags":"т","text":"<p>y</p>"}`,
	}}
	s := New(gen, nil, nil, testProfile(), nil)

	results := s.Batch(context.Background(), []string{"а", "б"}, "")
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("unexpected errors: %v, %v", results[0].Err, results[1].Err)
	}
	if results[0].Article.Section != "main" {
		t.Errorf("first article section = %q, want main", results[0].Article.Section)
	}
	if results[1].Article.Section != "list" {
		t.Errorf("second article section = %q, want list", results[1].Article.Section)
	}
}

func TestBatch_SlugsUniqueWithinBatch(t *testing.T) {
	same := `{"title":"Новость","section":"list","tags":"т","text":"<p>x</p>"}`
	gen := &scriptedGen{responses: []string{same, same}}
	s := New(gen, nil, nil, testProfile(), nil)

	results := s.Batch(context.Background(), []string{"а", "б"}, "")
	if results[0].Article.Slug != "novost" {
		t.Errorf("first slug = %q", results[0].Article.Slug)
	}
	if results[1].Article.Slug != "novost-2" {
		t.Errorf("second slug = %q, want batch-local suffix", results[1].Article.Slug)
	}
}

func TestBatch_FailedTopicDoesNotAbort(t *testing.T) {
	boom := errors.New("backend down")
	gen := &scriptedGen{
		errs: []error{boom, boom, nil},
		responses: []string{"", "",
			`{"title":"Выжившая","section":"list","tags":"т","text":"<p>x</p>"}`,
		},
	}
	s := New(gen, nil, nil, testProfile(), nil)

	results := s.Batch(context.Background(), []string{"падает", "работает"}, "")
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err == nil {
		t.Error("first topic should have failed")
	}
	if results[1].Err != nil {
		t.Fatalf("second topic failed: %v", results[1].Err)
	}
	if results[1].Article.Section != "list" {
		t.Errorf("surviving article section = %q; position decides main, success does not shift it", results[1].Article.Section)
	}
}
