package gqlauth

import (
	"bytes"
	"crypto/rand"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
	"github.com/steambap/captcha"
)

const (
	captchaImageWidth  = 280
	captchaImageHeight = 90
	captchaTextLength  = 6
)

// captchaAlphabet avoids visually ambiguous glyphs (0/O, 1/l/I).
const captchaAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// DefaultCaptchaText produces a random display string for new challenges.
func DefaultCaptchaText() string {
	out := make([]byte, captchaTextLength)
	max := big.NewInt(int64(len(captchaAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// surface that loudly instead of weakening the challenge.
			panic(err)
		}
		out[i] = captchaAlphabet[n.Int64()]
	}
	return string(out)
}

// RenderCaptchaPNG draws the given text into a distorted PNG.
func RenderCaptchaPNG(text string) ([]byte, error) {
	data, err := captcha.NewCustomGenerator(captchaImageWidth, captchaImageHeight, func() (answer string, question string) {
		return text, text
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate captcha image")
	}

	var buf bytes.Buffer
	if err := data.WriteImage(&buf); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode captcha image")
	}

	return buf.Bytes(), nil
}
