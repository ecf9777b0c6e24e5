package generator

import (
	"fmt"
	"strings"
)

// Sampling parameters sent with every post request.
const (
	DefaultMaxTokens   = 120
	DefaultTemperature = 0.9
	DefaultTopP        = 0.95
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string

	MaxTokens   int
	Temperature float64
	TopP        float64
}

const (
	noTopicPlaceholder  = "[no external topic this run]"
	noMemoryPlaceholder = "[no recent memory yet]"
)

// Persona 描述发帖人的身份，写进每一次的 user prompt。
type Persona struct {
	Name  string
	About []string
}

// DefaultPersona is used when the config does not describe one.
var DefaultPersona = Persona{
	Name: "Vijay",
	About: []string{
		"I build smart contracts, DeFi stuff, stablecoins, audits, security fixes.",
		"I work with Solidity, Foundry, Hardhat, Ethereum.",
		"I also ship mobile apps (Flutter, native iOS/Android), web apps (React/Next.js), backend (Node.js), and deal with AWS.",
		"I am not learning. I already do this daily.",
	},
}

var voiceRules = []string{
	"Use plain simple English. Casual. Like I'm texting from my phone.",
	"Short sentences. Direct. A little tired, a little sarcastic is ok.",
	`First person only ("I", "I'm", "I did", "I fixed").`,
	"You can be annoyed. You can say it's boring, painful, or slow.",
	"You can mention Ethereum gas, audits, NFTs, royalties, mobile scroll bugs, AWS costs, etc.",
	`Do not sound formal or corporate. Do not say stuff like "functionality", "ensure proper behavior", "therefore", "moreover".`,
	`No fake hustle lines. No "grinding 24/7". No "the future of blockchain is bright".`,
	"Do NOT talk like a report. Talk like a person.",
	"Max 1 emoji if it fits. Many posts should have 0 emojis.",
	"Do NOT use hashtags unless it feels natural inside the sentence. Never put hashtags at the end.",
	"NEVER mention other users or accounts. No @. No links.",
}

var formatRules = []string{
	"Each line must be complete and end with a full stop or a question mark.",
	`Do NOT leave thoughts hanging like "and now I'm..." or "still working on".`,
	`No bullet points. No "*" lines. No "-" lines. No "•".`,
	`No headers like "[Update:]".`,
	"No code fences like ```.",
	`No "<BLANKLINE>" text. Just real newlines (\n\n).`,
	"Total output must stay under 250 characters.",
	"Output ONLY the post text. No quotes around it, no JSON, no labels.",
}

// BuildPostPrompt 生成一条帖子的提示词。topic 和 memory 可以为空。
func BuildPostPrompt(system string, persona Persona, topic, memory string, style StyleDirective) Prompt {
	if topic == "" {
		topic = noTopicPlaceholder
	}
	if memory == "" {
		memory = noMemoryPlaceholder
	}

	var sb strings.Builder
	if persona.Name != "" {
		sb.WriteString(fmt.Sprintf("You are posting as me, %s.\n\n", persona.Name))
	}
	if len(persona.About) > 0 {
		sb.WriteString("WHO I AM:\n")
		writeRules(&sb, persona.About)
		sb.WriteString("\n")
	}
	sb.WriteString("WHAT PEOPLE ARE TALKING ABOUT RIGHT NOW:\n")
	sb.WriteString(topic)
	sb.WriteString("\n\n")
	sb.WriteString("RECENT THINGS I'VE ALREADY SAID (do not repeat the same idea or same wording):\n")
	sb.WriteString(memory)
	sb.WriteString("\n\n")
	sb.WriteString("VOICE / STYLE RULES:\n")
	writeRules(&sb, voiceRules)
	sb.WriteString("\n")
	sb.WriteString("FORMAT RULES:\n")
	sb.WriteString(style.Instruction())
	sb.WriteString("\n")
	writeRules(&sb, formatRules)

	return Prompt{
		System:      system,
		User:        sb.String(),
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
	}
}

func writeRules(sb *strings.Builder, rules []string) {
	for _, r := range rules {
		sb.WriteString("- ")
		sb.WriteString(r)
		sb.WriteString("\n")
	}
}
