package redis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// payloadField 是 stream 訊息中存放編碼後資料的欄位
const payloadField = "data"

var (
	ErrPointerType    = errors.New("pointer type is not allowed")
	ErrMissingPayload = errors.New("payload field not found or invalid type")
)

func isPointer(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Ptr
}

// DefaultParseToMessage 以 msgpack 編碼後再轉成 base64，放進 stream 訊息的 data 欄位
func DefaultParseToMessage[T any](data T) (map[string]any, error) {
	if isPointer(data) {
		return nil, ErrPointerType
	}

	raw, err := msgpack.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}
	return map[string]any{
		payloadField: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// DefaultParseFromMessage 是 DefaultParseToMessage 的反向操作
// 空訊息回傳零值
func DefaultParseFromMessage[T any](message map[string]any) (T, error) {
	var result T
	if isPointer(result) {
		return result, ErrPointerType
	}
	if len(message) == 0 {
		return result, nil
	}

	encoded, ok := message[payloadField].(string)
	if !ok {
		return result, ErrMissingPayload
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return result, fmt.Errorf("base64 decode error: %w", err)
	}
	if err := msgpack.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return result, nil
}
