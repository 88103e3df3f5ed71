package harness

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/dealer-verify/internal/errs"
)

// Timeouts are the waits applied to a step, in milliseconds.
type Timeouts struct {
	ActionMS float64
	AssertMS float64
}

// Step is one UI interaction or expectation. Do blocks until the browser
// reports the action done, the expectation met, or the timeout elapsed.
type Step interface {
	Describe() string
	Do(ctx context.Context, page playwright.Page, t Timeouts) error
}

// ClickStep clicks an element once it is visible, stable and enabled.
type ClickStep struct {
	Target Locator
}

// Click returns a step that clicks target.
func Click(target Locator) ClickStep {
	return ClickStep{Target: target}
}

func (s ClickStep) Describe() string {
	return "click " + s.Target.String()
}

func (s ClickStep) Do(_ context.Context, page playwright.Page, t Timeouts) error {
	err := s.Target.resolve(page).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(t.ActionMS),
	})
	if err != nil {
		return errs.Wrap(errs.ElementNotFound, s.Describe(), err)
	}
	return nil
}

// UploadStep sets the files of a file input.
type UploadStep struct {
	Target Locator
	Path   string
}

// Upload returns a step that sets target's file input to path.
func Upload(target Locator, path string) UploadStep {
	return UploadStep{Target: target, Path: path}
}

func (s UploadStep) Describe() string {
	return fmt.Sprintf("upload %s into %s", filepath.Base(s.Path), s.Target)
}

func (s UploadStep) Do(_ context.Context, page playwright.Page, t Timeouts) error {
	err := s.Target.resolve(page).SetInputFiles([]string{s.Path}, playwright.LocatorSetInputFilesOptions{
		Timeout: playwright.Float(t.ActionMS),
	})
	if err != nil {
		return errs.Wrap(errs.ElementNotFound, s.Describe(), err)
	}
	return nil
}

// ExpectVisibleStep polls until the element is visible.
type ExpectVisibleStep struct {
	Target Locator
}

// ExpectVisible returns a step asserting target becomes visible.
func ExpectVisible(target Locator) ExpectVisibleStep {
	return ExpectVisibleStep{Target: target}
}

func (s ExpectVisibleStep) Describe() string {
	return "expect " + s.Target.String() + " visible"
}

func (s ExpectVisibleStep) Do(_ context.Context, page playwright.Page, t Timeouts) error {
	expect := playwright.NewPlaywrightAssertions(t.AssertMS)
	if err := expect.Locator(s.Target.resolve(page)).ToBeVisible(); err != nil {
		return errs.Wrap(errs.AssertionFailed, s.Describe(), err)
	}
	return nil
}

func validateStep(step Step) error {
	switch s := step.(type) {
	case ClickStep:
		return s.Target.validate()
	case UploadStep:
		if s.Path == "" {
			return fmt.Errorf("upload step has no file path")
		}
		return s.Target.validate()
	case ExpectVisibleStep:
		return s.Target.validate()
	case nil:
		return fmt.Errorf("nil step")
	default:
		return nil
	}
}
