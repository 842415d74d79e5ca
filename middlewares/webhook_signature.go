package middlewares

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tipflow/tip-backend/utils"
)

const (
	CtxSignatureValid = "signature_valid"
	CtxRawBody        = "raw_body"

	maxWebhookBody = 1 << 20
)

// WebhookSignature checks hex(HMAC-SHA256(secret, body)) against the
// Chapa-Signature or X-Chapa-Signature header. With an empty secret every
// request passes unchecked. The raw body is stored under CtxRawBody and
// restored for the handler.
func WebhookSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			utils.RespondAbort(c, http.StatusBadRequest, "unreadable body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Set(CtxRawBody, body)

		if secret == "" {
			c.Set(CtxSignatureValid, false)
			c.Next()
			return
		}

		sig := c.GetHeader("Chapa-Signature")
		if sig == "" {
			sig = c.GetHeader("X-Chapa-Signature")
		}
		if !ValidSignature(secret, body, sig) {
			utils.ErrorLogger.WithField("ip", c.ClientIP()).Warn("webhook signature mismatch")
			utils.RespondAbort(c, http.StatusUnauthorized, "invalid signature")
			return
		}

		c.Set(CtxSignatureValid, true)
		c.Next()
	}
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func ValidSignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
