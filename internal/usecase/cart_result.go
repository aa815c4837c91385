package usecase

import "github.com/ShevArtV/miniShop2/internal/domain/model"

// カート操作の失敗理由
type ErrorCode string

const (
	CodeInvalidID       ErrorCode = "invalid_id"
	CodeInvalidCount    ErrorCode = "invalid_count"
	CodeCountExceeded   ErrorCode = "count_exceeded"
	CodeProductNotFound ErrorCode = "product_not_found"
	CodeHookRejected    ErrorCode = "hook_rejected"
	CodeLineNotFound    ErrorCode = "line_not_found"
)

// 文言キー。翻訳は呼び出し側で行う。
const (
	MsgAddSuccess    = "cart_add_success"
	MsgAddErrID      = "cart_add_err_id"
	MsgAddErrCount   = "cart_add_err_count"
	MsgAddErrNF      = "cart_add_err_nf"
	MsgChangeSuccess = "cart_change_success"
	MsgChangeError   = "cart_change_error"
	MsgRemoveSuccess = "cart_remove_success"
	MsgRemoveError   = "cart_remove_error"
	MsgCleanSuccess  = "cart_clean_success"
)

// カート操作の結果。成功も失敗も同じ形で、Success で判定する。
// 保存先の障害などは Result ではなく error で返る。
type Result struct {
	Success      bool              `json:"success"`
	Code         ErrorCode         `json:"code,omitempty"`
	Message      string            `json:"message"`
	Data         *model.CartStatus `json:"data"`
	Placeholders map[string]any    `json:"placeholders,omitempty"`
}

func success(message string, status model.CartStatus, placeholders map[string]any) Result {
	return Result{
		Success:      true,
		Message:      message,
		Data:         &status,
		Placeholders: placeholders,
	}
}

func failure(code ErrorCode, message string, status *model.CartStatus, placeholders map[string]any) Result {
	return Result{
		Success:      false,
		Code:         code,
		Message:      message,
		Data:         status,
		Placeholders: placeholders,
	}
}
