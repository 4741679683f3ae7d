package setup

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/livefolio/config"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"gopkg.in/yaml.v3"
)

// ConfigFile file written by the wizard.
const ConfigFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers raw wizard input.
type answers struct {
	apiURL         string
	feedURL        string
	token          string
	supported      string
	listen         string
	tlsDomains     string
	journalDir     string
	requestTimeout string
	maxRetries     string
	emaPeriod      string
	logLevel       string
}

func defaultAnswers() answers {
	def := config.Default()
	names := make([]string, len(def.Supported))
	for i, s := range def.Supported {
		names[i] = s.String()
	}
	return answers{
		apiURL:         def.APIURL,
		feedURL:        def.FeedURL,
		supported:      strings.Join(names, ","),
		listen:         def.Listen,
		journalDir:     def.JournalDir,
		requestTimeout: def.RequestTimeout.String(),
		maxRetries:     strconv.Itoa(def.MaxRetries),
		emaPeriod:      strconv.Itoa(def.EMAPeriod),
		logLevel:       def.LogLevel,
	}
}

func step(title string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("LIVEFOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and returns the written config path.
// The token goes to envFile, never to the yaml.
func RunTUI(envFile string) (string, error) {
	a := defaultAnswers()
	var confirm bool

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("LIVEFOLIO CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the viewer at your account.\n"))

	fmt.Println(stepStyle.Render("STEP 1: ACCOUNT SERVER"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account API URL").
				Description("http(s) base url of the account server").
				Value(&a.apiURL).
				Validate(validateURL("http", "https")),
			huh.NewInput().
				Title("Price Feed URL").
				Description("ws(s) url of the push feed").
				Value(&a.feedURL).
				Validate(validateURL("ws", "wss")),
			huh.NewInput().
				Title("Session Token").
				Description("Saved to " + envFile + " as " + config.TokenEnv).
				Value(&a.token).
				EchoMode(huh.EchoModePassword),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 2: INSTRUMENTS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Supported Instruments").
				Description("Comma separated (e.g. GOOG,TSLA), replaced by the account profile").
				Value(&a.supported).
				Validate(validateInstruments),
			huh.NewInput().
				Title("Chart EMA Period").
				Value(&a.emaPeriod).
				Validate(validatePositiveInt),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 3: LOCAL SURFACE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Value(&a.listen),
			huh.NewInput().
				Title("TLS Domains").
				Description("Comma separated, empty for plain HTTP").
				Value(&a.tlsDomains),
			huh.NewInput().
				Title("Journal Dir").
				Value(&a.journalDir),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 4: NETWORK")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Request Timeout").
				Description("Duration string (e.g. 5s, 10s)").
				Value(&a.requestTimeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Max Retries").
				Description("Retries for read-only account requests").
				Value(&a.maxRetries).
				Validate(validateNonNegativeInt),
			huh.NewSelect[string]().
				Title("Log Level").
				Options(
					huh.NewOption("Info", "info"),
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&a.logLevel),
		),
	).Run()
	if err != nil {
		return "", err
	}

	cfg, err := a.config()
	if err != nil {
		return "", err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"API: %s\nFeed: %s\nInstruments: %s\nListen: %s\nJournal: %s\n",
		cfg.APIURL, cfg.FeedURL, a.supported, cfg.Listen, cfg.JournalDir,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}

	if !confirm {
		return "", fmt.Errorf("setup cancelled by user")
	}

	if err := writeConfig(ConfigFile, cfg); err != nil {
		return "", err
	}
	if a.token != "" {
		if err := config.SaveToken(envFile, a.token); err != nil {
			return "", err
		}
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\nConfiguration saved to %s\nStarting viewer...", ConfigFile)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return ConfigFile, nil
}

// config converts validated answers into a config.
func (a answers) config() (config.Config, error) {
	cfg := config.Default()
	cfg.APIURL = strings.TrimSpace(a.apiURL)
	cfg.FeedURL = strings.TrimSpace(a.feedURL)
	cfg.Listen = strings.TrimSpace(a.listen)
	cfg.JournalDir = strings.TrimSpace(a.journalDir)
	cfg.LogLevel = a.logLevel
	if list := domain.ParseInstruments(a.supported); len(list) > 0 {
		cfg.Supported = list
	}
	for _, d := range strings.Split(a.tlsDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.TLSDomains = append(cfg.TLSDomains, d)
		}
	}

	timeout, err := time.ParseDuration(a.requestTimeout)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "request timeout")
	}
	cfg.RequestTimeout = timeout

	if cfg.MaxRetries, err = strconv.Atoi(a.maxRetries); err != nil {
		return config.Config{}, errors.Wrap(err, "max retries")
	}
	if cfg.EMAPeriod, err = strconv.Atoi(a.emaPeriod); err != nil {
		return config.Config{}, errors.Wrap(err, "ema period")
	}

	// the token is checked at load time, not here
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func writeConfig(path string, cfg config.Config) error {
	data, err := yaml.Marshal(cfg.ToTmp())
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func validateURL(schemes ...string) func(string) error {
	return func(s string) error {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || u.Host == "" {
			return fmt.Errorf("must be a valid url")
		}
		for _, scheme := range schemes {
			if u.Scheme == scheme {
				return nil
			}
		}
		return fmt.Errorf("scheme must be one of %s", strings.Join(schemes, ", "))
	}
}

func validateInstruments(s string) error {
	if len(domain.ParseInstruments(s)) == 0 {
		return fmt.Errorf("at least one instrument required")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration (e.g. 10s)")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func validateNonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
