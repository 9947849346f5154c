// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Unknown-layout policies. They decide what happens to a question the answerer
// has no strategy for.
const (
	LayoutPause = "pause"
	LayoutSkip  = "skip"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	LMS     LMSConfig     `mapstructure:"lms" yaml:"lms"`
	Quiz    QuizConfig    `mapstructure:"quiz" yaml:"quiz"`
	Files   FilesConfig   `mapstructure:"files" yaml:"files"`
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the Chrome instance driven through CDP.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	LaunchTimeout     time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	// PostLoadWait is how long the tab must stay free of loading frames
	// before a page counts as stable after a click.
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// LMSConfig describes the login form of the learning-management system.
type LMSConfig struct {
	LoginURL         string        `mapstructure:"login_url" yaml:"login_url"`
	UsernameSelector string        `mapstructure:"username_selector" yaml:"username_selector"`
	PasswordSelector string        `mapstructure:"password_selector" yaml:"password_selector"`
	LoginSelector    string        `mapstructure:"login_selector" yaml:"login_selector"`
	KeystrokePause   time.Duration `mapstructure:"keystroke_pause" yaml:"keystroke_pause"`
}

// QuizConfig holds the markup conventions of the quiz pages and loop pacing.
type QuizConfig struct {
	QuestionDelay time.Duration `mapstructure:"question_delay" yaml:"question_delay"`
	MaxPages      int           `mapstructure:"max_pages" yaml:"max_pages"`
	Selectors     Selectors     `mapstructure:"selectors" yaml:"selectors"`
}

// Selectors are the CSS selectors the runner relies on. Any change to the
// platform markup breaks lookups, so they are kept in configuration.
type Selectors struct {
	StartButton     string `mapstructure:"start_button" yaml:"start_button"`
	ResultsMarker   string `mapstructure:"results_marker" yaml:"results_marker"`
	SubmitBlocks    string `mapstructure:"submit_blocks" yaml:"submit_blocks"`
	ConfirmBlocks   string `mapstructure:"confirm_blocks" yaml:"confirm_blocks"`
	Question        string `mapstructure:"question" yaml:"question"`
	QuestionText    string `mapstructure:"question_text" yaml:"question_text"`
	Next            string `mapstructure:"next" yaml:"next"`
	GapSelect       string `mapstructure:"gap_select" yaml:"gap_select"`
	TextInput       string `mapstructure:"text_input" yaml:"text_input"`
	ChoiceBox       string `mapstructure:"choice_box" yaml:"choice_box"`
	ChoiceInput     string `mapstructure:"choice_input" yaml:"choice_input"`
	ChoiceLabel     string `mapstructure:"choice_label" yaml:"choice_label"`
	MovingPartGroup string `mapstructure:"moving_part_group" yaml:"moving_part_group"`
}

// FilesConfig locates the local answer sources.
type FilesConfig struct {
	Credentials string `mapstructure:"credentials" yaml:"credentials"`
	TextAnswers string `mapstructure:"text_answers" yaml:"text_answers"`
	AnswerKey   string `mapstructure:"answer_key" yaml:"answer_key"`
}

// RunConfig holds per-run switches, most of them also exposed as flags.
type RunConfig struct {
	URL           string  `mapstructure:"url" yaml:"url"`
	Submit        bool    `mapstructure:"submit" yaml:"submit"`
	HoldOpen      bool    `mapstructure:"hold_open" yaml:"hold_open"`
	UnknownLayout string  `mapstructure:"unknown_layout" yaml:"unknown_layout"`
	Ratio         float64 `mapstructure:"ratio" yaml:"ratio"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "randomer")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.action_timeout", "30s")
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.post_load_wait", "500ms")

	// -- LMS --
	v.SetDefault("lms.login_url", "https://online.mospolytech.ru/login/index.php")
	v.SetDefault("lms.username_selector", "#username")
	v.SetDefault("lms.password_selector", "#password")
	v.SetDefault("lms.login_selector", "#loginbtn")
	v.SetDefault("lms.keystroke_pause", "100ms")

	// -- Quiz --
	v.SetDefault("quiz.question_delay", "1s")
	v.SetDefault("quiz.max_pages", 200)
	v.SetDefault("quiz.selectors.start_button", ".quizstartbuttondiv button")
	v.SetDefault("quiz.selectors.results_marker", ".generaltable")
	v.SetDefault("quiz.selectors.submit_blocks", ".submitbtns")
	v.SetDefault("quiz.selectors.confirm_blocks", ".confirmation-buttons")
	v.SetDefault("quiz.selectors.question", ".que")
	v.SetDefault("quiz.selectors.question_text", ".qtext")
	v.SetDefault("quiz.selectors.next", `[name="next"]`)
	v.SetDefault("quiz.selectors.gap_select", "span.control.group1 > select")
	v.SetDefault("quiz.selectors.text_input", "input.form-control.d-inline")
	v.SetDefault("quiz.selectors.choice_box", ".answer > div")
	v.SetDefault("quiz.selectors.choice_input", "input[type=radio], input[type=checkbox]")
	v.SetDefault("quiz.selectors.choice_label", `[data-region="answer-label"], label`)
	v.SetDefault("quiz.selectors.moving_part_group", "td.control.hiddenifjs > select")

	// -- Files --
	v.SetDefault("files.credentials", "credentials.txt")
	v.SetDefault("files.text_answers", "text_answers.txt")
	v.SetDefault("files.answer_key", "answers.json")

	// -- Run --
	v.SetDefault("run.url", "")
	v.SetDefault("run.submit", false)
	v.SetDefault("run.hold_open", true)
	v.SetDefault("run.unknown_layout", LayoutPause)
	// A negative ratio means "ask the operator".
	v.SetDefault("run.ratio", -1.0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Files.expand(); err != nil {
		return nil, fmt.Errorf("invalid file paths: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expand resolves a leading ~ in every configured path.
func (f *FilesConfig) expand() error {
	for _, p := range []*string{&f.Credentials, &f.TextAnswers, &f.AnswerKey} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Quiz.MaxPages <= 0 {
		return fmt.Errorf("quiz.max_pages must be a positive integer")
	}
	if c.Quiz.QuestionDelay < 0 {
		return fmt.Errorf("quiz.question_delay must not be negative")
	}
	if c.LMS.LoginURL == "" {
		return fmt.Errorf("lms.login_url is required")
	}
	switch strings.ToLower(c.Run.UnknownLayout) {
	case LayoutPause, LayoutSkip:
		c.Run.UnknownLayout = strings.ToLower(c.Run.UnknownLayout)
	default:
		return fmt.Errorf("run.unknown_layout must be %q or %q, got %q", LayoutPause, LayoutSkip, c.Run.UnknownLayout)
	}
	if c.Run.Ratio > 100 {
		return fmt.Errorf("run.ratio must be between 0 and 100")
	}
	return nil
}
