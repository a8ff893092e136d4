package stealth

import (
	"fmt"
	"strings"
)

// BlockType categorizes a page that stops automation
type BlockType string

const (
	BlockCheckpoint     BlockType = "CHECKPOINT"
	BlockCaptcha        BlockType = "CAPTCHA"
	BlockTwoFactor      BlockType = "TWO_FACTOR"
	BlockSessionExpired BlockType = "SESSION_EXPIRED"
	BlockRestricted     BlockType = "ACCOUNT_RESTRICTED"
	BlockRateLimited    BlockType = "RATE_LIMITED"
)

// Block describes a detected checkpoint, captcha or restriction page
type Block struct {
	Type    BlockType
	Message string
	// Manual blocks can be cleared by a person in the open browser window.
	Manual bool
}

func (b *Block) Error() string {
	return fmt.Sprintf("[%s] %s", b.Type, b.Message)
}

var urlPatterns = []struct {
	fragment string
	block    BlockType
}{
	{"/checkpoint/", BlockCheckpoint},
	{"/two_step_verification/", BlockTwoFactor},
	{"/login/", BlockSessionExpired},
	{"/login.php", BlockSessionExpired},
}

var textPatterns = map[BlockType][]string{
	BlockCaptcha: {
		"security check",
		"enter the characters you see",
		"confirm you're human",
	},
	BlockTwoFactor: {
		"enter the code we sent",
		"approve from another device",
		"two-factor authentication required",
	},
	BlockRestricted: {
		"your account has been locked",
		"we suspended your account",
		"your account is restricted",
	},
	BlockRateLimited: {
		"you're temporarily blocked",
		"you can't use this feature right now",
		"it looks like you were misusing this feature",
	},
}

// textOrder fixes the check order since map iteration is random
var textOrder = []BlockType{BlockRestricted, BlockCaptcha, BlockTwoFactor, BlockRateLimited}

// Detect classifies the current page from its URL and visible text.
// It returns nil for a normal page.
func Detect(pageURL, pageText string) *Block {
	lowerURL := strings.ToLower(pageURL)
	for _, p := range urlPatterns {
		if strings.Contains(lowerURL, p.fragment) {
			return newBlock(p.block)
		}
	}

	lowerText := strings.ToLower(pageText)
	for _, t := range textOrder {
		for _, phrase := range textPatterns[t] {
			if strings.Contains(lowerText, phrase) {
				return newBlock(t)
			}
		}
	}

	return nil
}

func newBlock(t BlockType) *Block {
	b := &Block{Type: t}

	switch t {
	case BlockCheckpoint:
		b.Message = "checkpoint page (identity confirmation required)"
		b.Manual = true
	case BlockCaptcha:
		b.Message = "captcha challenge detected"
		b.Manual = true
	case BlockTwoFactor:
		b.Message = "two-factor code required"
		b.Manual = true
	case BlockSessionExpired:
		b.Message = "redirected to login, session not established"
	case BlockRestricted:
		b.Message = "account is restricted"
	case BlockRateLimited:
		b.Message = "feature temporarily blocked"
	}

	return b
}
