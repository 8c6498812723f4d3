package intent

import "strings"

// requiredSlots 是各意图执行前必须集齐的槽位表。顺序即提示顺序：
// send_token 先问 recipient 再问 amount。
var requiredSlots = map[Intent][]string{
	IntentSendToken: {SlotRecipient, SlotAmount},
}

// RequiredParameters 返回指定意图的必填槽位名称，无多步收集需求的意图
// 返回 nil。
func RequiredParameters(it Intent) []string {
	slots, ok := requiredSlots[it]
	if !ok {
		return nil
	}
	out := make([]string, len(slots))
	copy(out, slots)
	return out
}

// Missing 重新推导缺失槽位，检查顺序与 requiredSlots 一致。判定只看
// Parameters 本身是否非空，不信任抽取服务给出的 missing_info。
func Missing(it Intent, params Parameters) []string {
	var missing []string
	for _, name := range requiredSlots[it] {
		if strings.TrimSpace(params.Slot(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Merge 合并已收集与新到达的槽位，冲突时以新值为准。对相同输入重复
// 调用结果不变。
func Merge(pending, incoming Parameters) Parameters {
	merged := pending
	if strings.TrimSpace(incoming.Recipient) != "" {
		merged.Recipient = incoming.Recipient
	}
	if strings.TrimSpace(incoming.Amount) != "" {
		merged.Amount = incoming.Amount
	}
	if strings.TrimSpace(incoming.TokenSymbol) != "" {
		merged.TokenSymbol = incoming.TokenSymbol
	}
	if strings.TrimSpace(incoming.ContractAddress) != "" {
		merged.ContractAddress = incoming.ContractAddress
	}
	if strings.TrimSpace(incoming.Network) != "" {
		merged.Network = incoming.Network
	}
	if strings.TrimSpace(incoming.Method) != "" {
		merged.Method = incoming.Method
	}
	return merged
}

// Complete 判断意图在给定槽位下是否可以直接派发。
func Complete(it Intent, params Parameters) bool {
	return len(Missing(it, params)) == 0
}
