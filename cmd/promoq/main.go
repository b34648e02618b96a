package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type client struct {
	baseURL    string
	token      string
	admin      bool
	httpClient *http.Client
}

type taskView struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
	Results     struct {
		ContentGenerated int            `json:"contentGenerated"`
		PostsPublished   map[string]int `json:"postsPublished"`
		CampaignsCreated int            `json:"campaignsCreated"`
		AffiliateLinks   int            `json:"affiliateLinksGenerated"`
		EstimatedRevenue float64        `json:"estimatedRevenue"`
		Errors           []string       `json:"errors"`
	} `json:"results"`
}

type submitResp struct {
	Task                       taskView `json:"task"`
	EstimatedCompletionMinutes int      `json:"estimatedCompletionMinutes"`
}

type recommendationView struct {
	Schedule []struct {
		StartHour int `json:"startHour"`
		EndHour   int `json:"endHour"`
	} `json:"schedule"`
	PlatformSplit              map[string]float64 `json:"platformSplit"`
	BudgetByPlatform           map[string]float64 `json:"budgetByPlatform"`
	ExpectedImprovementPercent float64            `json:"expectedImprovementPercent"`
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

type profile struct {
	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token"`
	Admin   bool   `yaml:"admin"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.admin {
		req.Header.Set("X-Role", "ADMIN")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

func main() {
	baseURL := getenv("PROMOQ_BASE_URL", "http://localhost:8080")
	token := getenv("PROMOQ_TOKEN", "")
	admin := getenvBool("PROMOQ_ADMIN", isLocalURL(baseURL))
	profileName := getenv("PROMOQ_PROFILE", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "promoq",
		Short: "promoQ CLI",
		Long:  "promoQ CLI for content automation tasks and budget allocation.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for promoQ")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token")
	root.PersistentFlags().BoolVar(&admin, "admin", admin, "Send X-Role: ADMIN (dev only)")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("PROMOQ_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !flags.Changed("token") {
			if v := strings.TrimSpace(os.Getenv("PROMOQ_TOKEN")); v != "" {
				token = v
			} else if prof.Token != "" {
				token = prof.Token
			}
		}
		if !flags.Changed("admin") {
			if v := strings.TrimSpace(os.Getenv("PROMOQ_ADMIN")); v != "" {
				admin = getenvBool("PROMOQ_ADMIN", admin)
			} else if prof.Admin {
				admin = true
			} else if isLocalURL(baseURL) {
				admin = true
			}
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(initCmd(&profileName, ui))
	root.AddCommand(authCmd(&profileName, ui))
	root.AddCommand(taskCmd(&baseURL, &token, &admin, ui))
	root.AddCommand(allocCmd(&baseURL, &token, &admin, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func initCmd(profileName *string, ui *ui) *cobra.Command {
	var (
		baseURL  string
		token    string
		admin    bool
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]

			if baseURL == "" {
				baseURL = prof.BaseURL
			}
			if baseURL == "" {
				baseURL = "http://localhost:8080"
			}

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Base URL", baseURL)
				if token == "" {
					token = prompt(reader, "Bearer token (optional)", "")
				}
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			if token != "" {
				prof.Token = strings.TrimSpace(token)
			}
			if cmd.Flags().Changed("admin") {
				prof.Admin = admin
			}

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for promoQ")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	cmd.Flags().BoolVar(&admin, "admin", false, "Set admin for profile")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(profileName *string, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	var (
		token string
		admin bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Store token in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				t, err := promptSecret("Token")
				if err != nil {
					return err
				}
				token = t
			}
			if token == "" && !cmd.Flags().Changed("admin") {
				return errors.New("provide --token (or --admin)")
			}
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			if token != "" {
				prof.Token = strings.TrimSpace(token)
			}
			if cmd.Flags().Changed("admin") {
				prof.Admin = admin
			}
			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Credentials updated for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	set.Flags().StringVar(&token, "token", "", "Bearer token")
	set.Flags().BoolVar(&admin, "admin", false, "Set admin for profile")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			fmt.Printf("%s Profile: %s\n", ui.title("promoq"), active)
			fmt.Printf("%s Base URL: %s\n", ui.info("•"), emptyOr(prof.BaseURL, "<unset>"))
			fmt.Printf("%s Token:    %s\n", ui.info("•"), maskToken(prof.Token))
			fmt.Printf("%s Admin:    %v\n", ui.info("•"), prof.Admin)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			prof.Token = ""
			cfg.Profiles[active] = prof
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Token cleared for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}

	auth.AddCommand(set, show, clear)
	return auth
}

func taskCmd(baseURL, token *string, admin *bool, ui *ui) *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Automation task operations",
	}

	var (
		taskType   string
		theme      string
		audience   string
		platforms  string
		categories string
		budget     float64
		targetROAS float64
		videoStyle string
		heavyVideo bool
	)

	submit := &cobra.Command{
		Use:     "submit",
		Short:   "Submit an automation task",
		Example: `promoq task submit --theme "tech reviews" --platforms tiktok,youtube --budget 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf := splitList(platforms)
			if len(pf) == 0 {
				return errors.New("platforms are required")
			}
			body := map[string]any{
				"type": taskType,
				"config": map[string]any{
					"contentTheme":      theme,
					"targetAudience":    audience,
					"platforms":         pf,
					"productCategories": splitList(categories),
					"budgetPerPlatform": budget,
					"targetRoas":        targetROAS,
					"video": map[string]any{
						"style":           videoStyle,
						"heavyProcessing": heavyVideo,
					},
				},
			}

			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Submitting task..."
			spin.Start()
			status, resp, err := c.request("POST", "/v1/promoq/tasks", body)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out submitResp
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Printf("%s Task submitted: %s\n", ui.ok("[OK]"), out.Task.ID)
			fmt.Printf("%s Estimated completion: ~%d min\n", ui.info("[INFO]"), out.EstimatedCompletionMinutes)
			return nil
		},
	}
	submit.Flags().StringVar(&taskType, "type", "content_generation", "Task type")
	submit.Flags().StringVar(&theme, "theme", "", "Content theme")
	submit.Flags().StringVar(&audience, "audience", "", "Target audience")
	submit.Flags().StringVar(&platforms, "platforms", "", "Comma-separated platform list")
	submit.Flags().StringVar(&categories, "categories", "", "Comma-separated product categories")
	submit.Flags().Float64Var(&budget, "budget", 0, "Ad budget per platform")
	submit.Flags().Float64Var(&targetROAS, "roas", 0, "Target return on ad spend")
	submit.Flags().StringVar(&videoStyle, "video-style", "", "Video style hint")
	submit.Flags().BoolVar(&heavyVideo, "heavy-video", false, "Request full video rendering")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching task..."
			spin.Start()
			status, resp, err := c.request("GET", "/v1/promoq/tasks/"+url.PathEscape(args[0]), nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Println(string(resp))
			return nil
		},
	}

	var watchInterval int
	watch := &cobra.Command{
		Use:   "watch <id>",
		Short: "Watch a task until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL, *token, *admin)
			if watchInterval <= 0 {
				watchInterval = 2
			}
			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Waiting for task"),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionClearOnFinish(),
			)
			for {
				status, resp, err := c.request("GET", "/v1/promoq/tasks/"+url.PathEscape(args[0]), nil)
				if err != nil {
					return err
				}
				if status >= 300 {
					return fmt.Errorf("error (%d): %s", status, string(resp))
				}
				var t taskView
				if err := json.Unmarshal(resp, &t); err != nil {
					return err
				}
				if t.Status == "completed" || t.Status == "failed" {
					_ = bar.Finish()
					printTask(t, ui)
					return nil
				}
				_ = bar.Add(1)
				time.Sleep(time.Duration(watchInterval) * time.Second)
			}
		},
	}
	watch.Flags().IntVar(&watchInterval, "interval", 2, "Poll interval in seconds")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tracked tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL, *token, *admin)
			status, resp, err := c.request("GET", "/v1/promoq/tasks", nil)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out struct {
				Tasks []taskView `json:"tasks"`
				Count int        `json:"count"`
			}
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			if out.Count == 0 {
				fmt.Println(ui.dim("no tasks"))
				return nil
			}
			for _, t := range out.Tasks {
				fmt.Printf("%s  %s  %s\n", t.ID, statusColored(t.Status, ui), ui.dim(t.Type))
			}
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL, *token, *admin)
			status, resp, err := c.request("POST", "/v1/promoq/tasks/"+url.PathEscape(args[0])+"/cancel", nil)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out struct {
				Cancelled bool `json:"cancelled"`
			}
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			if out.Cancelled {
				fmt.Printf("%s Task cancelled\n", ui.ok("[OK]"))
			} else {
				fmt.Printf("%s Task was not running; nothing cancelled\n", ui.warn("[WARN]"))
			}
			return nil
		},
	}

	task.AddCommand(submit, get, watch, list, cancel)
	return task
}

func allocCmd(baseURL, token *string, admin *bool, ui *ui) *cobra.Command {
	alloc := &cobra.Command{
		Use:   "alloc",
		Short: "Budget allocation operations",
	}

	var (
		platforms string
		budget    float64
	)
	recommend := &cobra.Command{
		Use:     "recommend",
		Short:   "Get a budget and schedule recommendation",
		Example: "promoq alloc recommend --platforms tiktok,youtube --budget 500",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf := splitList(platforms)
			if len(pf) == 0 {
				return errors.New("platforms are required")
			}
			c := newClient(*baseURL, *token, *admin)
			q := url.Values{}
			q.Set("platforms", strings.Join(pf, ","))
			if budget > 0 {
				q.Set("budget", fmt.Sprintf("%g", budget))
			}
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Computing recommendation..."
			spin.Start()
			status, resp, err := c.request("GET", "/v1/promoq/allocations/recommendation?"+q.Encode(), nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var rec recommendationView
			if err := json.Unmarshal(resp, &rec); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Println(ui.title("Recommended allocation"))
			for _, p := range pf {
				line := fmt.Sprintf("  %-12s %5.1f%%", p, rec.PlatformSplit[p]*100)
				if b, ok := rec.BudgetByPlatform[p]; ok && budget > 0 {
					line += fmt.Sprintf("  %s", ui.info(fmt.Sprintf("$%.2f", b)))
				}
				fmt.Println(line)
			}
			if len(rec.Schedule) > 0 {
				fmt.Println(ui.title("Posting windows"))
				for _, w := range rec.Schedule {
					fmt.Printf("  %02d:00 - %02d:00\n", w.StartHour, w.EndHour)
				}
			}
			fmt.Printf("%s Expected improvement: %.1f%%\n", ui.info("[INFO]"), rec.ExpectedImprovementPercent)
			return nil
		},
	}
	recommend.Flags().StringVar(&platforms, "platforms", "", "Comma-separated platform list")
	recommend.Flags().Float64Var(&budget, "budget", 0, "Total budget to split")

	arms := &cobra.Command{
		Use:   "arms",
		Short: "Show per-arm reward statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL, *token, *admin)
			status, resp, err := c.request("GET", "/v1/promoq/allocations/arms", nil)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out struct {
				Arms []struct {
					Key        string  `json:"key"`
					Pulls      int     `json:"pulls"`
					WindowSize int     `json:"windowSize"`
					Mean       float64 `json:"mean"`
					Score      float64 `json:"score"`
				} `json:"arms"`
			}
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			if len(out.Arms) == 0 {
				fmt.Println(ui.dim("no observations yet"))
				return nil
			}
			fmt.Printf("%-20s %8s %8s %10s %10s\n", "ARM", "PULLS", "WINDOW", "MEAN", "SCORE")
			for _, a := range out.Arms {
				fmt.Printf("%-20s %8d %8d %10.4f %10.4f\n", a.Key, a.Pulls, a.WindowSize, a.Mean, a.Score)
			}
			return nil
		},
	}

	var (
		platform string
		reward   float64
		hour     int
	)
	observe := &cobra.Command{
		Use:     "observe",
		Short:   "Record a reward observation",
		Example: "promoq alloc observe --platform tiktok --reward 0.8 --hour 18",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(platform) == "" {
				return errors.New("platform is required")
			}
			body := map[string]any{
				"platform": platform,
				"reward":   reward,
			}
			if cmd.Flags().Changed("hour") {
				body["hour"] = hour
			}
			c := newClient(*baseURL, *token, *admin)
			status, resp, err := c.request("POST", "/v1/promoq/allocations/observations", body)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Printf("%s Observation recorded\n", ui.ok("[OK]"))
			return nil
		},
	}
	observe.Flags().StringVar(&platform, "platform", "", "Platform name")
	observe.Flags().Float64Var(&reward, "reward", 0, "Normalized reward")
	observe.Flags().IntVar(&hour, "hour", 0, "Hour of day (0-23) for slot-level attribution")

	alloc.AddCommand(recommend, arms, observe)
	return alloc
}

func printTask(t taskView, ui *ui) {
	fmt.Printf("%s %s (%s)\n", ui.title("Task"), t.ID, statusColored(t.Status, ui))
	if t.Error != "" {
		fmt.Printf("  %s %s\n", ui.err("error:"), t.Error)
	}
	fmt.Printf("  content: %d  posts: %d  campaigns: %d  links: %d\n",
		t.Results.ContentGenerated, sumCounts(t.Results.PostsPublished),
		t.Results.CampaignsCreated, t.Results.AffiliateLinks)
	if t.Results.EstimatedRevenue > 0 {
		fmt.Printf("  est. revenue: %s\n", ui.ok(fmt.Sprintf("$%.2f", t.Results.EstimatedRevenue)))
	}
	for _, e := range t.Results.Errors {
		fmt.Printf("  %s %s\n", ui.warn("stage:"), e)
	}
}

func statusColored(status string, ui *ui) string {
	switch status {
	case "completed":
		return ui.ok(status)
	case "failed":
		return ui.err(status)
	case "running":
		return ui.info(status)
	default:
		return ui.dim(status)
	}
}

func sumCounts(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func newClient(baseURL, token string, admin bool) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		admin:      admin,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func isLocalURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "localhost" || host == "127.0.0.1"
}

func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func helpTemplate(ui *ui) string {
	title := ui.title("promoq")
	return fmt.Sprintf(`%s — CLI for promoQ

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  promoq init
  promoq task submit --theme "tech reviews" --platforms tiktok,youtube --budget 50
  promoq task watch <id>
  promoq alloc recommend --platforms tiktok,youtube --budget 500
  promoq alloc arms

`, title, configPath())
}

func configPath() string {
	if v := strings.TrimSpace(os.Getenv("PROMOQ_CONFIG_DIR")); v != "" {
		return filepath.Join(v, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".promoq", "config.yaml")
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	if v := strings.TrimSpace(os.Getenv("PROMOQ_PROFILE")); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func emptyOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
