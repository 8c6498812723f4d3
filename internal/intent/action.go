package intent

import "strings"

// Intent 是意图抽取服务返回的封闭词表。词表之外的任何取值一律归入
// IntentUnknown，由调度器走统一的失败出口。
type Intent string

const (
	IntentSendToken     Intent = "send_token"
	IntentSwapToken     Intent = "swap_token"
	IntentCheckBalance  Intent = "check_balance"
	IntentWalletAddress Intent = "wallet_address"
	IntentOther         Intent = "other"
	IntentUnknown       Intent = "unknown"
)

// ParseIntent 将上游返回的原始字符串映射到封闭词表。
func ParseIntent(raw string) Intent {
	switch Intent(strings.TrimSpace(raw)) {
	case IntentSendToken:
		return IntentSendToken
	case IntentSwapToken:
		return IntentSwapToken
	case IntentCheckBalance:
		return IntentCheckBalance
	case IntentWalletAddress:
		return IntentWalletAddress
	case IntentOther:
		return IntentOther
	default:
		return IntentUnknown
	}
}

// 槽位名称，顺序检查时以 requiredSlots 表为准。
const (
	SlotRecipient       = "recipient"
	SlotAmount          = "amount"
	SlotTokenSymbol     = "token_symbol"
	SlotContractAddress = "contract_address"
	SlotNetwork         = "network"
	SlotMethod          = "method"
)

// Parameters 保存一次意图携带的命名槽位。空字符串等价于槽位缺失。
type Parameters struct {
	Recipient       string `json:"recipient,omitempty"`
	Amount          string `json:"amount,omitempty"`
	TokenSymbol     string `json:"token_symbol,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`
	Network         string `json:"network,omitempty"`
	Method          string `json:"method,omitempty"`
}

// Slot 按名称取槽位值，未知名称返回空串。
func (p Parameters) Slot(name string) string {
	switch name {
	case SlotRecipient:
		return p.Recipient
	case SlotAmount:
		return p.Amount
	case SlotTokenSymbol:
		return p.TokenSymbol
	case SlotContractAddress:
		return p.ContractAddress
	case SlotNetwork:
		return p.Network
	case SlotMethod:
		return p.Method
	default:
		return ""
	}
}

// IsZero 判断是否没有任何已填充的槽位。
func (p Parameters) IsZero() bool {
	return p == Parameters{}
}

// UserAction 是意图抽取服务的结构化输出。Intent 恒有值；Parameters 可
// 为空；MissingInfo 仅作参考，缺失槽位以 Missing 的重新推导为准。
type UserAction struct {
	Intent      Intent     `json:"intent"`
	Parameters  Parameters `json:"parameters"`
	Confidence  float64    `json:"confidence"`
	MissingInfo []string   `json:"missing_info,omitempty"`
	UserInput   string     `json:"userInput,omitempty"`
	Timestamp   string     `json:"timestamp,omitempty"`
}
