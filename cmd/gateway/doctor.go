package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"genui-gateway/internal/adapter/auth"
	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
)

const probeTimeout = 10 * time.Second

type checkStatus int

const (
	statusPass checkStatus = iota
	statusWarn
	statusFail
)

func (s checkStatus) String() string {
	switch s {
	case statusPass:
		return "PASS"
	case statusWarn:
		return "WARN"
	case statusFail:
		return "FAIL"
	}
	return "????"
}

// finding is the outcome of one doctor check. fix is an optional hint.
type finding struct {
	status  checkStatus
	message string
	fix     string
}

func passf(format string, args ...any) finding {
	return finding{status: statusPass, message: fmt.Sprintf(format, args...)}
}

// doctorEnv is what every check sees: the config as loaded (nil when loading
// failed) and the client used for network probes.
type doctorEnv struct {
	cfgPath string
	cfg     *config.Config
	loadErr error
	client  *http.Client
}

type check struct {
	name string
	run  func(*doctorEnv) finding
}

// needsConfig wraps a check that cannot run without a loaded config.
func needsConfig(fn func(*config.Config, *http.Client) finding) func(*doctorEnv) finding {
	return func(env *doctorEnv) finding {
		if env.cfg == nil {
			return finding{status: statusFail, message: "skipped: config not loaded"}
		}
		return fn(env.cfg, env.client)
	}
}

func doctorChecks() []check {
	return []check{
		{"Config file", checkConfigFile},
		{"Credential", needsConfig(checkCredential)},
		{"Claude CLI", needsConfig(checkCLI)},
		{"Anthropic API", needsConfig(checkAnthropic)},
		{"Completions upstream", needsConfig(checkCompletions)},
	}
}

type tally struct{ pass, warn, fail int }

func (t *tally) add(s checkStatus) {
	switch s {
	case statusPass:
		t.pass++
	case statusWarn:
		t.warn++
	default:
		t.fail++
	}
}

// runDoctor loads the config, runs every check and reports to stdout. It
// fails when any check fails.
func runDoctor() error {
	env := &doctorEnv{cfgPath: configPath(), client: http.DefaultClient}
	env.cfg, env.loadErr = config.Load(env.cfgPath)

	fmt.Printf("genui-gateway doctor (%s)\n\n", version)
	t := runChecks(os.Stdout, env, doctorChecks())

	switch {
	case t.fail > 0:
		return fmt.Errorf("%d check(s) failed", t.fail)
	case t.warn > 0:
		fmt.Println("\nUsable, with warnings.")
	default:
		fmt.Println("\nReady to serve.")
	}
	return nil
}

// runChecks writes one line per check and a summary line.
func runChecks(out io.Writer, env *doctorEnv, checks []check) tally {
	var t tally
	for _, c := range checks {
		f := c.run(env)
		t.add(f.status)
		fmt.Fprintf(out, "[%s] %-22s %s\n", f.status, c.name, f.message)
		if f.fix != "" {
			fmt.Fprintf(out, "       fix: %s\n", f.fix)
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d warnings, %d failed\n", t.pass, t.warn, t.fail)
	return t
}

// checkConfigFile fails on a load error. A missing file only warns: defaults
// and environment overrides are enough to serve.
func checkConfigFile(env *doctorEnv) finding {
	if env.loadErr != nil {
		return finding{
			status:  statusFail,
			message: env.loadErr.Error(),
			fix:     "check " + env.cfgPath + " syntax, values and permissions (0600)",
		}
	}
	if _, err := os.Stat(env.cfgPath); os.IsNotExist(err) {
		return finding{status: statusWarn, message: "no file at " + env.cfgPath + ", using defaults"}
	}
	return passf("loaded %s", env.cfgPath)
}

func checkCredential(cfg *config.Config, _ *http.Client) finding {
	st := auth.NewTokenStore(cfg.Auth, slog.New(slog.NewTextHandler(io.Discard, nil))).Status()
	switch {
	case st.Source == auth.SourceNone:
		return finding{
			status:  statusFail,
			message: "no credential stored",
			fix:     "run 'claude setup-token', then 'genui-gateway token set <token>'",
		}
	case !st.Authenticated:
		return finding{
			status:  statusFail,
			message: "stored credential " + st.Preview + " is malformed",
			fix:     "store a token starting with sk-ant-oat01- or sk-ant-api03-",
		}
	}
	return passf("%s %s (from %s)", st.Kind, st.Preview, st.Source)
}

// checkCLI looks for the claude binary. Setup tokens are served through it.
func checkCLI(cfg *config.Config, _ *http.Client) finding {
	cli := cfg.LLM.CLI
	if !cli.Enabled {
		return passf("cli provider disabled; setup tokens will be rejected")
	}
	path, err := exec.LookPath(cli.Binary)
	if err != nil {
		return finding{
			status:  statusWarn,
			message: fmt.Sprintf("%q not on PATH; setup-token chats will fail", cli.Binary),
			fix:     "install the Claude CLI or set llm.cli.binary",
		}
	}
	return passf("found %s", path)
}

// checkAnthropic probes the API base URL. Any HTTP response counts.
func checkAnthropic(cfg *config.Config, client *http.Client) finding {
	endpoint := strings.TrimRight(cfg.LLM.Anthropic.BaseURL, "/") + "/"
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return finding{status: statusFail, message: "bad base URL: " + err.Error()}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return finding{
			status:  statusFail,
			message: fmt.Sprintf("cannot reach %s: %v", endpoint, err),
			fix:     "check network access and llm.anthropic.base_url",
		}
	}
	resp.Body.Close()
	return passf("%s answered in %dms", endpoint, time.Since(start).Milliseconds())
}

func checkCompletions(cfg *config.Config, _ *http.Client) finding {
	pc := cfg.LLM.Completions
	switch {
	case pc.APIKey == "":
		return finding{
			status:  statusWarn,
			message: "no API key for " + pc.Name + "; /v1/chat/completions will fail",
			fix:     "set GENUI_COMPLETIONS_API_KEY or llm.completions.api_key",
		}
	case pc.Type == "openrouter" && domain.ClassifyCredential(pc.APIKey) != domain.CredentialUnknown:
		return finding{status: statusWarn, message: "key looks like an Anthropic credential but the upstream is openrouter"}
	}
	return passf("%s key configured (model %s)", pc.Type, pc.Model)
}
