// Package corefmt 處理 PRNG 快照等二進位狀態的文字編碼。
package corefmt

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/zintix-labs/scratchlab/errs"
)

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errs.WrapWarn(err, "decode base64url failed")
	}
	return b, err
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errs.WrapWarn(err, "decode hex failed")
	}
	return b, err
}

// DecodeSnapshot 接受 base64url（預設輸出格式）或 "hex:" 前綴的十六進位字串。
func DecodeSnapshot(s string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(strings.TrimSpace(s), "hex:"); ok {
		return DecodeHex(rest)
	}
	return DecodeBase64URL(s)
}
