package browser

import "github.com/chromedp/chromedp"

func chromedpDefaults() []chromedp.ExecAllocatorOption {
	return chromedp.DefaultExecAllocatorOptions[:]
}
