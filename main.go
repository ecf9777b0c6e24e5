package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"auto_x_post_publisher/generator"
	"auto_x_post_publisher/memory"
	"auto_x_post_publisher/oauth"
	"auto_x_post_publisher/publisher"
	"auto_x_post_publisher/runner"
	"auto_x_post_publisher/server"
)

var verbose bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json")
	topic := flag.String("topic", "", "topic for this post (default: random line of topics file)")
	dryRun := flag.Bool("dry-run", false, "compose only, do not publish")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	authURL := flag.Bool("auth-url", false, "print the authorization URL for the one-time OAuth bootstrap")
	code := flag.String("code", "", "exchange an authorization code for a token bundle")
	pkceVerifier := flag.String("verifier", "", "PKCE verifier printed by -auth-url, required with -code")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg, err := publisher.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *authURL {
		verifier := oauth2.GenerateVerifier()
		u, err := oauth.AuthorizeURL(cfg.AuthorizeURL, cfg.ClientID, cfg.RedirectURI,
			fmt.Sprintf("xposter-state-%d", time.Now().UnixMilli()), verifier, oauth.DefaultScopes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(u)
		fmt.Printf("then run: -code <code> -verifier %s\n", verifier)
		return
	}

	ctx := context.Background()
	store := oauth.NewStore(cfg.Tokens)
	refresher, err := oauth.NewRefresher(store, oauth.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		TokenURL:     cfg.TokenURL,
	}, nil, verbose, log.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	refresher.OnRotate = func(oauth.TokenBundle) {
		log.Printf("[WARN] refresh token rotated; update X_REFRESH_TOKEN before the next restart")
	}

	if *code != "" {
		bundle, err := refresher.ExchangeCode(ctx, *code, *pkceVerifier)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("X_ACCESS_TOKEN=%s\nX_REFRESH_TOKEN=%s\nX_ACCESS_TOKEN_EXPIRES_AT=%d\n",
			bundle.AccessToken, bundle.RefreshToken, bundle.ExpiresAt)
		return
	}

	r, mem, err := buildRunner(ctx, cfg, refresher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Web server mode
	if *serve {
		srv, err := server.New(r, mem, cfg.RunSecret, log.Default())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":3000"
		}
		log.Printf("Starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *dryRun {
		post, err := r.Preview(ctx, *topic)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log.Printf("[cli] dry run style=%s topic=%q", post.Style, post.Topic)
		fmt.Println(post.Text)
		return
	}

	log.Printf("[cli] posting cycle start")
	res, err := r.RunOnce(ctx, *topic)
	if err != nil {
		var rateErr *publisher.RateLimitedError
		if errors.As(err, &rateErr) {
			log.Printf("[cli] rate limited, backing off: %v", err)
		} else {
			log.Printf("[cli] posting cycle failed: %v", err)
		}
		os.Exit(1)
	}
	if res.Skipped {
		log.Printf("[cli] nothing generated, skipped")
		return
	}
	log.Printf("[cli] posted id=%s", res.Result.ID)
	fmt.Println(res.Post.Text)
}

func buildRunner(ctx context.Context, cfg publisher.Config, tokens publisher.TokenSource) (*runner.Runner, memory.Log, error) {
	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, nil, err
	}

	var mem memory.Log = memory.NewFileLog(cfg.MemoryPath)
	if cfg.RedisURL != "" {
		rl, err := memory.NewRedisLog(ctx, cfg.RedisURL, "")
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		mem = rl
	}

	var persona *generator.Persona
	if p := cfg.LLM.Persona; p != nil {
		persona = &generator.Persona{Name: p.Name, About: p.About}
	}

	var rng sharedRand
	composer, err := generator.NewComposer(llm, generator.ComposerOptions{
		SystemPrompt: cfg.LLM.SystemPrompt,
		Persona:      persona,
		Memory:       mem,
		Rand:         rng,
		Verbose:      verbose,
		Logger:       log.Default(),
	})
	if err != nil {
		return nil, nil, err
	}

	pub, err := publisher.New(tokens, cfg.PostURL, nil, verbose, log.Default())
	if err != nil {
		return nil, nil, err
	}

	r, err := runner.New(composer, pub, runner.Options{
		Memory:     mem,
		TopicsPath: cfg.TopicsPath,
		Rand:       rng,
		Verbose:    verbose,
		Logger:     log.Default(),
	})
	if err != nil {
		return nil, nil, err
	}
	return r, mem, nil
}

// sharedRand uses the goroutine-safe top-level source, since a preview and a
// run may compose at the same time.
type sharedRand struct{}

func (sharedRand) IntN(n int) int { return rand.Intn(n) }

func buildLLM(cfg publisher.Config) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	switch cfg.LLM.Provider {
	case generator.ProviderOpenAI, generator.ProviderHuggingFace:
		// Hugging Face router 提供 OpenAI 兼容接口，需填写 base_url。
		if cfg.LLM.Provider == generator.ProviderHuggingFace && cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider huggingface requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	case generator.ProviderMock:
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
