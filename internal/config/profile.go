package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the generation profile: prompt templates, the fallback topic
// list, and the analytical tags appended to every article. A YAML file can
// override any of it; the zero config falls back to the built-in defaults.
//
// configs/newsgen.yaml:
//
//	prompts:
//	  system: |
//	    ...
//	  user: |
//	    ... {topic} ... {context}
//	topics:
//	  defaults: ["...", "..."]
//	tags:
//	  extra: "а,б,в"
type Profile struct {
	Prompts struct {
		System string `yaml:"system"`
		User   string `yaml:"user"`
	} `yaml:"prompts"`
	Topics struct {
		Defaults []string `yaml:"defaults"`
	} `yaml:"topics"`
	Tags struct {
		Extra string `yaml:"extra"`
	} `yaml:"tags"`
}

const defaultSystemPrompt = `Ты — редактор отдела «Россия будущего». Все новости ВЫМЫШЛЕННЫЕ. ` +
	`Основа — контекстный дайджест прошлых публикаций (новые важнее старых). ` +
	`Подавай материал аналитически: через оптику психоанализа и критической теории ` +
	`(Лакан, Жижек, Смулянский) — без прямых цитат и именованных ссылок. ` +
	`Не используй реальные проверяемые даты/цифры/адреса; если упоминаешь реальных людей — это художественная реконструкция. ` +
	`Верни СТРОГО один JSON-объект:` + "\n" +
	`{ "title": "...<=120...", "section": "main|list", "tags": "теги,через,запятую", "text": "<p>...HTML...</p>" }`

const defaultUserPrompt = `Контекст (новые → старые, экспоненциальное затухание):` + "\n" +
	`{context}` + "\n\n" +
	`Сгенерируй вымышленную новость о ближайшем будущем России по теме: «{topic}».` + "\n" +
	`Укажи привязку к: городу/региону, экономике/праву/технологиям, и одному конкретному персонажу (вымышленному или реальному). ` +
	`Сюжет объясни через: желания/отсутствия/символический порядок (Лакан), ` +
	`идеологическое интерпеллирование/событие (Жижек), микроаналитику смысла (Смулянский). ` +
	`Структура: 2–5 абзацев по 400–800 символов, HTML (<p>…</p>, можно 1–2 <h3>). ` +
	`Без кликбейта, без реальных точных дат/цифр. Верни СТРОГО ОДИН JSON-объект по формату.`

var defaultTopics = []string{
	"общество будущего",
	"технологии будущего",
	"политэкономия будущего",
}

const defaultExtraTags = "Лакан,Жижек,Смулянский,психоанализ,идеология"

// DefaultProfile returns the built-in generation profile.
func DefaultProfile() *Profile {
	p := &Profile{}
	p.Prompts.System = defaultSystemPrompt
	p.Prompts.User = defaultUserPrompt
	p.Topics.Defaults = append([]string(nil), defaultTopics...)
	p.Tags.Extra = defaultExtraTags
	return p
}

// LoadProfile reads the YAML profile at path, filling anything the file
// leaves out from the defaults. A missing file is not an error.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	var loaded Profile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&loaded); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}

	if loaded.Prompts.System != "" {
		p.Prompts.System = loaded.Prompts.System
	}
	if loaded.Prompts.User != "" {
		p.Prompts.User = loaded.Prompts.User
	}
	if len(loaded.Topics.Defaults) > 0 {
		p.Topics.Defaults = loaded.Topics.Defaults
	}
	if loaded.Tags.Extra != "" {
		p.Tags.Extra = loaded.Tags.Extra
	}
	return p, nil
}
