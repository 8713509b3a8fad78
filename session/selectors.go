package session

import (
	"time"

	"watcher/browser"
)

// Selectors locate every control the session touches. They follow the target site's
// markup and are expected to need updates when it changes. OwnComment may use the
// ${channel} placeholder for the operator's channel identity.
type Selectors struct {
	PopupClose         browser.Chain `yaml:"popup_close"`
	CommentInput       browser.Chain `yaml:"comment_input"`
	CommentSubmit      browser.Chain `yaml:"comment_submit"`
	Title              browser.Chain `yaml:"title"`
	OwnComment         browser.Chain `yaml:"own_comment"`
	CommentBlock       string        `yaml:"comment_block"`
	ReplyButton        browser.Chain `yaml:"reply_button"`
	ReplyWrapper       browser.Chain `yaml:"reply_wrapper"`
	ReplyInput         browser.Chain `yaml:"reply_input"`
	ReplyInputFallback browser.Chain `yaml:"reply_input_fallback"`
	SendButton         browser.Chain `yaml:"send_button"`
	SendButtonFallback browser.Chain `yaml:"send_button_fallback"`
}

// Waits are the bounded element waits baked into the default selectors.
type Waits struct {
	CommentInput time.Duration
	ReplyWrapper time.Duration
	SendButton   time.Duration
}

func DefaultWaits() Waits {
	return Waits{
		CommentInput: 10 * time.Second,
		ReplyWrapper: 15 * time.Second,
		SendButton:   10 * time.Second,
	}
}

const (
	replyInputCSS = "div.wdp-comment-input-module__textarea[contenteditable='true']"
	replyWrapCSS  = "div.wdp-answer-comment-module__wrapper"
	submitText    = "Отправить"
	replyText     = "Ответить"
)

// DefaultSelectors match the current rutube.ru watch page.
func DefaultSelectors(w Waits) Selectors {
	return Selectors{
		PopupClose: browser.Chain{
			{Name: "onboarding-close", Selector: browser.CSS("button.wdp-onboardings-inventory-module__closeIcon")},
		},
		CommentInput: browser.Single("comment-textarea",
			browser.CSS(".wdp-comment-first-level-input-module__commentTextarea"), w.CommentInput),
		CommentSubmit: browser.Chain{
			{Name: "submit-button", Selector: browser.CSS("button").WithText(submitText), Timeout: w.CommentInput},
			{Name: "submit-role-button", Selector: browser.CSS("[role='button']").WithText(submitText)},
		},
		Title: browser.Chain{
			{Name: "title-header", Selector: browser.CSS(".video-pageinfo-container-module__videoTitleSection h1.video-pageinfo-container-module__videoTitleSectionHeader")},
		},
		OwnComment: browser.Chain{
			{Name: "own-author-link", Selector: browser.CSS("a[href='/channel/${channel}/']")},
			{Name: "own-author-link-suffix", Selector: browser.CSS("a[href$='/channel/${channel}'], a[href$='/channel/${channel}/']")},
		},
		CommentBlock: ".wdp-comment-item-module__comment-wrapper",
		ReplyButton: browser.Chain{
			{Name: "answer-button", Selector: browser.CSS("button.wdp-comment-reactions-module__button-answer")},
		},
		ReplyWrapper: browser.Single("answer-wrapper", browser.CSS(replyWrapCSS), w.ReplyWrapper),
		ReplyInput: browser.Chain{
			{Name: "wrapper-input", Selector: browser.CSS(replyInputCSS)},
		},
		ReplyInputFallback: browser.Chain{
			{Name: "last-reply-input", Selector: browser.CSS(replyInputCSS), Pick: browser.PickLast},
		},
		SendButton: browser.Single("wrapper-send",
			browser.CSS("button:not([disabled])").WithText(replyText), w.SendButton),
		SendButtonFallback: browser.Single("page-send",
			browser.CSS(replyWrapCSS+" button:not([disabled])").WithText(replyText), w.SendButton),
	}
}

// Merge returns s with every non-empty field of override applied.
func (s Selectors) Merge(override Selectors) Selectors {
	pick := func(dst *browser.Chain, src browser.Chain) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&s.PopupClose, override.PopupClose)
	pick(&s.CommentInput, override.CommentInput)
	pick(&s.CommentSubmit, override.CommentSubmit)
	pick(&s.Title, override.Title)
	pick(&s.OwnComment, override.OwnComment)
	pick(&s.ReplyButton, override.ReplyButton)
	pick(&s.ReplyWrapper, override.ReplyWrapper)
	pick(&s.ReplyInput, override.ReplyInput)
	pick(&s.ReplyInputFallback, override.ReplyInputFallback)
	pick(&s.SendButton, override.SendButton)
	pick(&s.SendButtonFallback, override.SendButtonFallback)
	if override.CommentBlock != "" {
		s.CommentBlock = override.CommentBlock
	}
	return s
}
