package htmlnorm

import (
	"strings"
	"testing"
)

func TestIsMarkup(t *testing.T) {
	if !IsMarkup("<p>Абзац</p>") {
		t.Error("paragraph markup not detected")
	}
	if !IsMarkup("строка<br/>строка") {
		t.Error("br markup not detected")
	}
	if IsMarkup("просто текст про будущее") {
		t.Error("plain text misdetected as markup")
	}
}

func TestStripTags(t *testing.T) {
	in := `<p>Первый &amp; главный.</p><p>Второй.</p>`
	got := StripTags(in)
	if strings.Contains(got, "<") {
		t.Errorf("tags survived: %q", got)
	}
	if !strings.Contains(got, "Первый & главный.") {
		t.Errorf("entities not decoded: %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Errorf("block closers should become line breaks: %q", got)
	}
}

func TestRemoveHeroFigure(t *testing.T) {
	in := `<figure class="article-hero"><img src="x.jpg" alt="a"/><figcaption>Источник</figcaption></figure><p>Текст.</p>`
	got := RemoveHeroFigure(in)
	if strings.Contains(got, "article-hero") {
		t.Errorf("hero figure survived: %q", got)
	}
	if !strings.Contains(got, "<p>Текст.</p>") {
		t.Errorf("body content lost: %q", got)
	}

	plain := "<p>Без иллюстрации.</p>"
	if got := RemoveHeroFigure(plain); got != plain {
		t.Errorf("markup without hero changed: %q", got)
	}
}

func TestTeaser_ShortTextUnchanged(t *testing.T) {
	got := Teaser("<p>Короткий текст.</p>", 100)
	if got != "Короткий текст." {
		t.Errorf("Teaser = %q", got)
	}
}

func TestTeaser_TruncatesOnWordBoundary(t *testing.T) {
	got := Teaser("<p>Первое слово второе слово третье слово</p>", 20)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated teaser lacks ellipsis: %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "…"))); n > 20 {
		t.Errorf("teaser body %d runes, want <= 20", n)
	}
	if strings.Contains(got, "  ") || strings.HasSuffix(strings.TrimSuffix(got, "…"), " ") {
		t.Errorf("teaser not trimmed: %q", got)
	}
}

func TestTeaser_SkipsHeroCaption(t *testing.T) {
	in := `<figure class="article-hero"><img src="x"/><figcaption>Источник: лента</figcaption></figure><p>Сама новость.</p>`
	got := Teaser(in, 200)
	if strings.Contains(got, "Источник") {
		t.Errorf("hero caption leaked into teaser: %q", got)
	}
	if !strings.Contains(got, "Сама новость.") {
		t.Errorf("teaser lost body text: %q", got)
	}
}

func TestPromotePlainText_MarkupUntouched(t *testing.T) {
	in := "<p>Уже размечено.</p>"
	if got := PromotePlainText(in); got != in {
		t.Errorf("markup input changed: %q", got)
	}
}

func TestPromotePlainText_BlocksBecomeParagraphs(t *testing.T) {
	in := "Первый абзац.\n\nВторой абзац."
	got := PromotePlainText(in)
	want := "<p>Первый абзац.</p>\n<p>Второй абзац.</p>"
	if got != want {
		t.Errorf("PromotePlainText = %q, want %q", got, want)
	}
}

func TestPromotePlainText_BulletBlockBecomesList(t *testing.T) {
	in := "Вступление.\n\n- первый пункт\n- второй пункт"
	got := PromotePlainText(in)
	if !strings.Contains(got, "<ul><li>первый пункт</li><li>второй пункт</li></ul>") {
		t.Errorf("bullet block not promoted to list: %q", got)
	}
	if !strings.Contains(got, "<p>Вступление.</p>") {
		t.Errorf("leading block not promoted to paragraph: %q", got)
	}
}

func TestPromotePlainText_MixedBlockStaysParagraph(t *testing.T) {
	in := "Текст.\n\nПояснение:\n- пункт"
	got := PromotePlainText(in)
	if strings.Contains(got, "<ul>") {
		t.Errorf("mixed block wrongly promoted to list: %q", got)
	}
}

func TestPromotePlainText_SingleBlockSplitsOnAccumulation(t *testing.T) {
	sentence := strings.Repeat("а", 350) + ". "
	in := strings.TrimSpace(strings.Repeat(sentence, 4))

	got := PromotePlainText(in)
	if n := strings.Count(got, "<p>"); n < 2 {
		t.Errorf("long single block produced %d paragraphs, want at least 2:\n%q", n, got)
	}
}

func TestPromotePlainText_EscapesHTML(t *testing.T) {
	got := PromotePlainText("a < b & c")
	if !strings.Contains(got, "a &lt; b &amp; c") {
		t.Errorf("special characters not escaped: %q", got)
	}
}

func TestPromotePlainText_Empty(t *testing.T) {
	if got := PromotePlainText("   \n  "); got != "" {
		t.Errorf("whitespace input produced %q", got)
	}
}
