package generator

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
)

// memoryDepth is how many previous posts are shown to the model.
const memoryDepth = 10

const memorySeparator = "\n---\n"

// MemorySource returns previously posted texts, oldest first.
type MemorySource interface {
	Recent(ctx context.Context, n int) ([]string, error)
}

// Rand is the random source used for style selection. Tests pass a fixed one.
type Rand interface {
	IntN(n int) int
}

// globalRand is safe for concurrent use, unlike a *rand.Rand.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

// ComposerOptions 配置 Composer；除 LLM 外都可以留空。
type ComposerOptions struct {
	SystemPrompt string
	Persona      *Persona
	Memory       MemorySource
	Rand         Rand
	MaxLen       int
	Verbose      bool
	Logger       *log.Logger
}

// Composer 负责生成一条可以直接发布的帖子。
type Composer struct {
	llm     LLMClient
	memory  MemorySource
	rng     Rand
	system  string
	persona Persona
	maxLen  int
	verbose bool
	logger  *log.Logger
}

func NewComposer(llm LLMClient, opts ComposerOptions) (*Composer, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	c := &Composer{
		llm:     llm,
		memory:  opts.Memory,
		rng:     opts.Rand,
		system:  opts.SystemPrompt,
		persona: DefaultPersona,
		maxLen:  opts.MaxLen,
		verbose: opts.Verbose,
		logger:  opts.Logger,
	}
	if opts.Persona != nil {
		c.persona = *opts.Persona
	}
	if c.rng == nil {
		c.rng = globalRand{}
	}
	if c.maxLen <= 0 {
		c.maxLen = MaxPostLen
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c, nil
}

func (c *Composer) infof(format string, args ...interface{}) {
	if !c.verbose {
		return
	}
	c.logger.Printf("[INFO] "+format, args...)
}

// PickStyle chooses one of the style directives uniformly.
func (c *Composer) PickStyle() StyleDirective {
	return Styles[c.rng.IntN(len(Styles))]
}

// Compose 生成、清洗并截断一条帖子。topic 可以为空。
func (c *Composer) Compose(ctx context.Context, topic string) (Post, error) {
	memory := c.recentMemory(ctx)
	style := c.PickStyle()
	c.infof("composing post style=%s topic=%q", style, topic)

	prompt := BuildPostPrompt(c.system, c.persona, topic, memory, style)
	raw, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return Post{}, err
	}

	text := Sanitize(stripWrapping(raw))
	text = Trim(text, c.maxLen)
	c.infof("composed post (%d chars): %q", len([]rune(text)), text)

	return Post{
		Topic: topic,
		Style: style,
		Raw:   raw,
		Text:  text,
	}, nil
}

func (c *Composer) recentMemory(ctx context.Context) string {
	if c.memory == nil {
		return ""
	}
	entries, err := c.memory.Recent(ctx, memoryDepth)
	if err != nil {
		c.logger.Printf("[WARN] read recent posts: %v", err)
		return ""
	}
	return strings.Join(entries, memorySeparator)
}

// stripWrapping removes quotes or backticks the model wrapped around the post.
func stripWrapping(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "\"'`")
	s = strings.TrimRight(s, "\"'`")
	return strings.TrimSpace(s)
}
