package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datascrub-cli/internal/advisor"
	"github.com/KaramelBytes/datascrub-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datascrub-cli/internal/config"
	"github.com/KaramelBytes/datascrub-cli/internal/project"
)

// aiFlags are shared by plan and ask.
type aiFlags struct {
	Model       string
	Provider    string
	OllamaHost  string
	MaxTokens   int
	Temperature float64
	MaxColumns  int
	BudgetLimit float64
	TimeoutSec  int
	DryRun      bool
	JSON        bool
}

func (f *aiFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Model, "model", "", "model to use (overrides project and config)")
	cmd.Flags().StringVar(&f.Provider, "provider", "", "AI provider: openrouter|ollama (default from config)")
	cmd.Flags().StringVar(&f.OllamaHost, "ollama-host", "", "Ollama host URL (default http://127.0.0.1:11434)")
	cmd.Flags().IntVar(&f.MaxTokens, "max-tokens", 0, "max tokens in the reply (default from project or config)")
	cmd.Flags().Float64Var(&f.Temperature, "temperature", 0, "sampling temperature (default from project or config)")
	cmd.Flags().IntVar(&f.MaxColumns, "max-columns", 0, "max columns included in the prompt (default from config)")
	cmd.Flags().Float64Var(&f.BudgetLimit, "budget-limit", 0, "abort if the estimated max cost exceeds this USD amount")
	cmd.Flags().IntVar(&f.TimeoutSec, "timeout-sec", 180, "overall request timeout in seconds")
	cmd.Flags().BoolVar(&f.DryRun, "dry-run", false, "print the prompt and estimate without calling the model")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "print the result as JSON")
}

type runtimeOptions struct {
	ProviderFlag string
	OllamaHost   string
}

func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	httpTimeout := 60 * time.Second
	retryMax := 3
	baseDelay := 500 * time.Millisecond
	maxDelay := 4 * time.Second
	if cfg != nil {
		if cfg.HTTPTimeoutSec > 0 {
			httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			retryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			baseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			maxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
	}

	providerName := opts.ProviderFlag
	if strings.TrimSpace(providerName) == "" && cfg != nil {
		providerName = cfg.DefaultProvider
	}
	providerName = ai.CanonicalProvider(providerName)

	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" && cfg != nil {
		apiKey = cfg.APIKey
	}

	rc := ai.RuntimeConfig{
		HTTPTimeout: httpTimeout,
		RetryMax:    retryMax,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		APIKey:      apiKey,
	}

	if providerName == ai.ProviderOllama {
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" {
			host = os.Getenv("DATASCRUB_OLLAMA_HOST")
		}
		if host == "" && cfg != nil {
			host = cfg.OllamaHost
		}
		if host == "" {
			host = ai.DefaultOllamaHost
		}
		rc.Host = host
		if v := os.Getenv("DATASCRUB_OLLAMA_TIMEOUT_SEC"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				rc.HTTPTimeout = time.Duration(n) * time.Second
			}
		}
		if cfg != nil && cfg.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.OllamaTimeoutSec) * time.Second
		}
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (use %s)", providerName, strings.Join(ai.Providers(), "|"))
	}
	return client, providerName, nil
}

func selectModel(p *project.Project, cfg *cfgpkg.Global, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p != nil && p.Config != nil && p.Config.Model != "" {
		return p.Config.Model
	}
	if cfg != nil && cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return ai.DefaultModel
}

// advisorOptions applies flag > project > config precedence.
func advisorOptions(p *project.Project, cfg *cfgpkg.Global, f *aiFlags, source string) advisor.Options {
	opt := advisor.Options{
		Model:       selectModel(p, cfg, f.Model),
		MaxTokens:   f.MaxTokens,
		Temperature: f.Temperature,
		MaxColumns:  f.MaxColumns,
		Source:      source,
	}
	if opt.MaxTokens == 0 && p != nil && p.Config != nil {
		opt.MaxTokens = p.Config.MaxTokens
	}
	if opt.MaxTokens == 0 && cfg != nil {
		opt.MaxTokens = cfg.MaxTokens
	}
	if opt.MaxTokens == 0 {
		opt.MaxTokens = 2048
	}
	if opt.Temperature == 0 && p != nil && p.Config != nil {
		opt.Temperature = p.Config.Temperature
	}
	if opt.Temperature == 0 && cfg != nil {
		opt.Temperature = cfg.Temperature
	}
	if opt.MaxColumns == 0 && cfg != nil {
		opt.MaxColumns = cfg.PlanMaxColumns
	}
	return opt
}

func enforceBudget(estCost, limit float64) error {
	if limit > 0 && estCost > 0 && estCost > limit {
		return fmt.Errorf("✗ Estimated cost ~$%.4f exceeds budget limit ~$%.4f", estCost, limit)
	}
	return nil
}

// printEstimate reports prompt size and the worst-case cost, and returns
// that cost (0 when the model has no pricing).
func printEstimate(w io.Writer, model string, pr advisor.Prompt, maxTokens int) float64 {
	fmt.Fprintf(w, "Tokens: prompt≈%d, columns sent %d", pr.Tokens, pr.Columns)
	if pr.Omitted > 0 {
		fmt.Fprintf(w, " (%d omitted)", pr.Omitted)
	}
	fmt.Fprintln(w)
	mi, ok := ai.LookupModel(model)
	if !ok {
		return 0
	}
	cost, _ := ai.EstimateCostUSD(model, pr.Tokens, maxTokens)
	if cost > 0 {
		fmt.Fprintf(w, "Estimated max cost: ~$%.4f (in %.4f/out %.4f per 1K tokens)\n", cost, mi.InputPerK, mi.OutputPerK)
	}
	return cost
}

// describeAIError maps typed runtime errors to actionable messages.
func describeAIError(err error, providerName, model string) error {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return fmt.Errorf("no API key: set OPENROUTER_API_KEY, DATASCRUB_API_KEY, or 'datascrub config set api_key <key>': %w", err)
	case errors.As(err, &unreach):
		if providerName == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Ensure Ollama is running (see https://ollama.com) and host is correct. You can set DATASCRUB_OLLAMA_HOST or config 'ollama_host'. Detail: %w", unreach.Host, err)
		}
		return fmt.Errorf("endpoint unreachable. Check your network and provider settings: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: set OPENROUTER_API_KEY or add api_key in config (~/.datascrub/config.yaml): %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, please retry: %w", err)
	case errors.As(err, &nfErr):
		if providerName == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s' or choose another model. %w", model, model, err)
		}
		return fmt.Errorf("model not found (%s). Verify the model name or list known models with 'datascrub models': %w", model, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request invalid. Try --max-columns or a smaller --max-tokens: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	case errors.Is(err, advisor.ErrPromptTooLarge):
		return fmt.Errorf("%w. Use a model with a larger context window or lower --max-tokens", err)
	default:
		return fmt.Errorf("AI request failed: %w", err)
	}
}
