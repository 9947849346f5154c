package quiz

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/randomer/internal/answers"
	"github.com/xkilldash9x/randomer/internal/config"
)

// Login opens the LMS login form and submits the credentials.
func Login(ctx context.Context, page Page, creds answers.Credentials, lms config.LMSConfig, logger *zap.Logger) error {
	logger.Info("Navigating to the LMS login page...", zap.String("url", lms.LoginURL))
	if err := page.Navigate(ctx, lms.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	logger.Info("Authorizing...", zap.String("login", creds.Login))
	fields := []struct {
		selector string
		value    string
	}{
		{lms.UsernameSelector, creds.Login},
		{lms.PasswordSelector, creds.Password},
	}
	for _, f := range fields {
		el, err := First(ctx, page, f.selector)
		if err != nil {
			return err
		}
		if err := el.SendKeys(ctx, f.value); err != nil {
			return fmt.Errorf("type into %s: %w", f.selector, err)
		}
		if err := Sleep(ctx, lms.KeystrokePause); err != nil {
			return err
		}
	}

	btn, err := First(ctx, page, lms.LoginSelector)
	if err != nil {
		return err
	}
	if err := btn.Click(ctx); err != nil {
		return fmt.Errorf("click login: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		return fmt.Errorf("wait for login: %w", err)
	}
	return nil
}

// Start opens the quiz landing page and presses its start button.
func Start(ctx context.Context, page Page, url string, sel config.Selectors, logger *zap.Logger) error {
	if err := page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("open quiz: %w", err)
	}
	logger.Info(`Clicking on the "Begin the testing" button`)
	btn, err := First(ctx, page, sel.StartButton)
	if err != nil {
		return err
	}
	if err := btn.Click(ctx); err != nil {
		return fmt.Errorf("click start: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		return fmt.Errorf("wait for first quiz page: %w", err)
	}
	return nil
}
