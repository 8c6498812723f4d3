package bot

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"Rodeo-Bot/internal/chat"
	xerrors "Rodeo-Bot/internal/errors"
	"Rodeo-Bot/internal/intent"
	"Rodeo-Bot/internal/market"
	"Rodeo-Bot/internal/storage/mysql"
	"Rodeo-Bot/internal/tokens"
	"Rodeo-Bot/internal/transfer"
	"Rodeo-Bot/internal/wallet"
	"Rodeo-Bot/pkg/logger"
)

// 用户可见文案，与历史版本保持逐字一致。
const (
	msgGreeting = "🤖 Hello! Welcome to Rodeo, the number 1 vibe-trading platform on Base. Here are some things you can do:\n\n" +
		"/wallet - View your wallet\n" +
		"/balance - Check your balances\n" +
		"/buy - Buy tokens with ETH\n" +
		"/sell - Sell tokens for ETH\n" +
		"/deposit - Get your deposit address\n" +
		"/withdraw - Withdraw ETH to another address\n" +
		"/settings - Change trading settings\n" +
		"/help - Show this help message"
	msgGenericError  = "❌ An error occurred. Please try again later."
	msgTokenDataFail = "❌ Unable to fetch token data. Please ensure the address is correct."
)

// keyboardSender 是 Telegram 特有的带键盘发送能力，由 telegram.Client
// 实现。
type keyboardSender interface {
	SendKeyboard(ctx context.Context, chatID int64, text, parseMode string, keyboard tgbotapi.InlineKeyboardMarkup) (chat.MessageRef, error)
}

// Handlers 实现全部下游处理器：命令、余额、钱包与转账流程。
type Handlers struct {
	store     *mysql.Store
	chain     *wallet.ChainClient
	registry  *tokens.Registry
	market    *market.Client
	transfers *transfer.Service
	transport chat.Transport
	keyboards keyboardSender
	network   string
	encKey    []byte
	log       *slog.Logger
}

var (
	_ intent.BalanceHandler  = (*Handlers)(nil)
	_ intent.WalletHandler   = (*Handlers)(nil)
	_ intent.TransferHandler = (*Handlers)(nil)
	_ transfer.Notifier      = (*Handlers)(nil)
)

// NewHandlers 构造处理器集合。keyboards 可以为 nil，此时问候语退化为
// 纯文本。
func NewHandlers(store *mysql.Store, chain *wallet.ChainClient, registry *tokens.Registry, marketClient *market.Client, transfers *transfer.Service, transport chat.Transport, keyboards keyboardSender, network string, encryptionKey []byte) *Handlers {
	return &Handlers{
		store:     store,
		chain:     chain,
		registry:  registry,
		market:    marketClient,
		transfers: transfers,
		transport: transport,
		keyboards: keyboards,
		network:   network,
		encKey:    encryptionKey,
		log:       logger.Named("bot.handlers"),
	}
}

// Greet 发送问候语与快捷入口键盘。
func (h *Handlers) Greet(ctx context.Context, turn chat.Turn) error {
	if h.keyboards == nil {
		_, err := h.transport.Send(ctx, turn.ChatID, msgGreeting, chat.ModePlain)
		return err
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Balance", "check_balance"),
			tgbotapi.NewInlineKeyboardButtonData("💱 Buy/Sell", "buy_token"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Deposit", "deposit"),
			tgbotapi.NewInlineKeyboardButtonData("📤 Withdraw", "withdraw"),
		),
	)
	_, err := h.keyboards.SendKeyboard(ctx, turn.ChatID, msgGreeting, chat.ModePlain, keyboard)
	return err
}

// ShowAddress 展示用户的托管钱包地址，首次访问时建仓。
func (h *Handlers) ShowAddress(ctx context.Context, turn chat.Turn) error {
	record, err := h.ensureWallet(ctx, turn)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("👛 *Your wallet address:*\n`%s`\n\nSend tokens to this address to fund your account.", record.Address)
	_, err = h.transport.Send(ctx, turn.ChatID, text, chat.ModeMarkdown)
	return err
}

// ShowBalance 展示原生币与代币的余额总览。展示集合是注册表代币与用户
// 历史交易过的代币的并集，非零余额附带美元估值。
func (h *Handlers) ShowBalance(ctx context.Context, turn chat.Turn) error {
	record, err := h.ensureWallet(ctx, turn)
	if err != nil {
		return err
	}

	native, err := h.chain.NativeBalance(ctx, record.Address)
	if err != nil {
		return err
	}
	nativeSymbol := h.registry.NativeSymbol(h.network)
	if nativeSymbol == "" {
		nativeSymbol = "ETH"
	}

	type balanceLine struct {
		symbol  string
		amount  string
		address string
	}
	var lines []balanceLine
	for _, symbol := range h.displayTokens(ctx, record.UserID, nativeSymbol) {
		token, ok := h.registry.Resolve(h.network, symbol)
		if !ok || token.Address == "" {
			continue
		}
		balance, err := h.chain.TokenBalance(ctx, token.Address, record.Address)
		if err != nil {
			h.log.Warn("查询代币余额失败",
				slog.Any("error", err),
				slog.String("symbol", symbol))
			continue
		}
		if balance.Sign() == 0 {
			continue
		}
		lines = append(lines, balanceLine{
			symbol:  symbol,
			amount:  wallet.FormatUnits(balance, token.Decimals),
			address: token.Address,
		})
	}

	addresses := make([]string, 0, len(lines))
	for _, line := range lines {
		addresses = append(addresses, line.address)
	}
	prices := h.tokenPrices(ctx, addresses)

	var b strings.Builder
	b.WriteString("💰 *Your balances:*\n\n")
	fmt.Fprintf(&b, "*%s:* %s\n", nativeSymbol, wallet.FormatUnits(native, 18))
	for _, line := range lines {
		if value, ok := usdValue(line.amount, prices[strings.ToLower(line.address)]); ok {
			fmt.Fprintf(&b, "*%s:* %s ($%.2f)\n", line.symbol, line.amount, value)
			continue
		}
		fmt.Fprintf(&b, "*%s:* %s\n", line.symbol, line.amount)
	}

	_, err = h.transport.Send(ctx, turn.ChatID, b.String(), chat.ModeMarkdown)
	return err
}

// displayTokens 合并注册表代币与用户交易历史中出现过的代币，大小写
// 不敏感去重。历史查询失败降级为仅注册表。
func (h *Handlers) displayTokens(ctx context.Context, userID, nativeSymbol string) []string {
	symbols := h.registry.Symbols(h.network)
	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		seen[strings.ToUpper(symbol)] = struct{}{}
	}

	traded, err := h.store.ListUniqueTokensByUser(ctx, userID, nativeSymbol)
	if err != nil {
		h.log.Warn("查询历史代币失败", slog.Any("error", err), slog.String("user_id", userID))
		return symbols
	}
	for _, symbol := range traded {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		if upper == "" {
			continue
		}
		if _, ok := seen[upper]; ok {
			continue
		}
		seen[upper] = struct{}{}
		symbols = append(symbols, upper)
	}
	return symbols
}

// tokenPrices 批量查询美元报价，键为小写合约地址。失败时返回空表，
// 余额总览退化为无估值展示。
func (h *Handlers) tokenPrices(ctx context.Context, addresses []string) map[string]string {
	if len(addresses) == 0 {
		return nil
	}
	quotes, err := h.market.TokenPrices(ctx, addresses)
	if err != nil {
		h.log.Warn("查询代币报价失败", slog.Any("error", err))
		return nil
	}
	prices := make(map[string]string, len(quotes))
	for _, quote := range quotes {
		prices[strings.ToLower(quote.Address)] = quote.PriceUSD
	}
	return prices
}

func usdValue(amount, price string) (float64, bool) {
	if price == "" {
		return 0, false
	}
	a, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, false
	}
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0, false
	}
	return a * p, true
}

// Begin 从头开始转账收集流，提问收款地址。
func (h *Handlers) Begin(ctx context.Context, turn chat.Turn) error {
	_, err := h.transport.Send(ctx, turn.ChatID,
		"📤 Who should receive the tokens? Send me the recipient address.", chat.ModePlain)
	return err
}

// PromptAmount 在收款人已知时补问金额。
func (h *Handlers) PromptAmount(ctx context.Context, turn chat.Turn, recipient string) error {
	text := fmt.Sprintf("💸 How much would you like to send to `%s`?", recipient)
	_, err := h.transport.Send(ctx, turn.ChatID, text, chat.ModeMarkdown)
	return err
}

// Execute 受理一笔参数齐全的转账。用户输入问题渲染为提示，基础设施
// 故障向上返回。
func (h *Handlers) Execute(ctx context.Context, turn chat.Turn, params intent.Parameters) error {
	record, err := h.ensureWallet(ctx, turn)
	if err != nil {
		return err
	}

	symbol := strings.TrimSpace(params.TokenSymbol)
	if symbol == "" {
		symbol = h.registry.NativeSymbol(h.network)
	}

	orderID, err := h.transfers.Submit(ctx, transfer.SubmitRequest{
		UserID:        record.UserID,
		WalletAddress: record.Address,
		Recipient:     params.Recipient,
		TokenSymbol:   symbol,
		Amount:        params.Amount,
	})
	if err != nil {
		if xerrors.CodeOf(err) == xerrors.CodeInvalidArgument {
			text := "❌ I couldn't process that transfer. Please check the recipient address and amount, then try again."
			_, sendErr := h.transport.Send(ctx, turn.ChatID, text, chat.ModePlain)
			return sendErr
		}
		return err
	}

	text := fmt.Sprintf("✅ Transfer accepted.\n\n*Order:* `%s`\n*To:* `%s`\n*Amount:* %s %s\n\nYou'll get a confirmation once it's on-chain.",
		orderID, strings.TrimSpace(params.Recipient), strings.TrimSpace(params.Amount), symbol)
	_, err = h.transport.Send(ctx, turn.ChatID, text, chat.ModeMarkdown)
	return err
}

// TokenInfo 渲染合约地址对应的代币信息卡片。
func (h *Handlers) TokenInfo(ctx context.Context, turn chat.Turn, address string) error {
	data, err := h.market.TokenData(ctx, address)
	if err != nil || data == nil {
		h.log.Info("查询代币信息失败", slog.Any("error", err), slog.String("address", address))
		_, sendErr := h.transport.Send(ctx, turn.ChatID, msgTokenDataFail, chat.ModePlain)
		return sendErr
	}
	text := fmt.Sprintf("🔍 *Token Information:*\n\n*Name:* %s\n*Symbol:* $%s\n*Address:* %s\n*Price (USD):* $%s",
		data.Name, data.Symbol, data.Address, data.PriceUSD)
	_, err = h.transport.Send(ctx, turn.ChatID, text, chat.ModeMarkdown)
	return err
}

// ShowSettings 展示用户的交易设置。
func (h *Handlers) ShowSettings(ctx context.Context, turn chat.Turn) error {
	userID, err := h.ensureUser(ctx, turn)
	if err != nil {
		return err
	}
	settings, err := h.store.GetSettings(ctx, userID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("⚙️ *Your settings:*\n\n*Slippage:* %.1f%%\n*Gas priority:* %s",
		settings.Slippage, settings.GasPriority)
	_, err = h.transport.Send(ctx, turn.ChatID, text, chat.ModeMarkdown)
	return err
}

// NotifyWithdrawal 把提现订单的终态推送给用户。
func (h *Handlers) NotifyWithdrawal(ctx context.Context, order mysql.Withdrawal, txHash string, failure error) error {
	user, err := h.store.GetUser(ctx, order.UserID)
	if err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(user.TelegramID, 10, 64)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "用户的 Telegram 标识不合法")
	}

	if failure != nil {
		text := fmt.Sprintf("❌ Your transfer of %s %s could not be completed. Please try again later.",
			order.Amount, order.TokenSymbol)
		_, sendErr := h.transport.Send(ctx, chatID, text, chat.ModePlain)
		return sendErr
	}
	text := fmt.Sprintf("✅ *Transfer complete!*\n\n*Amount:* %s %s\n*To:* `%s`\n*Tx:* `%s`",
		order.Amount, order.TokenSymbol, order.Recipient, txHash)
	_, sendErr := h.transport.Send(ctx, chatID, text, chat.ModeMarkdown)
	return sendErr
}

// ensureUser 保证用户存在并返回内部标识。
func (h *Handlers) ensureUser(ctx context.Context, turn chat.Turn) (string, error) {
	return h.store.EnsureUser(ctx, mysql.User{
		UserID:     uuid.NewString(),
		TelegramID: strconv.FormatInt(turn.UserID, 10),
	})
}

// ensureWallet 保证用户与其托管钱包存在。钱包不存在时现场生成。
func (h *Handlers) ensureWallet(ctx context.Context, turn chat.Turn) (*mysql.WalletRecord, error) {
	userID, err := h.ensureUser(ctx, turn)
	if err != nil {
		return nil, err
	}

	record, err := h.store.GetWalletByUserID(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !stdErrors.Is(err, mysql.ErrNotFound) {
		return nil, err
	}

	generated, err := wallet.Generate(h.encKey)
	if err != nil {
		return nil, err
	}
	fresh := mysql.WalletRecord{
		Address:             generated.Address,
		UserID:              userID,
		EncryptedPrivateKey: generated.EncryptedPrivateKey,
		Type:                generated.Type,
		CreatedAt:           generated.CreatedAt,
	}
	if err := h.store.SaveWallet(ctx, fresh); err != nil {
		return nil, err
	}
	// 新用户随钱包落一份默认交易设置。读取侧有兜底，失败不致命。
	if err := h.store.SaveSettings(ctx, mysql.DefaultSettings(userID)); err != nil {
		h.log.Warn("初始化默认设置失败", slog.Any("error", err), slog.String("user_id", userID))
	}
	logger.Audit().Info("托管钱包已创建",
		slog.String("user_id", userID),
		slog.String("address", fresh.Address),
	)
	return &fresh, nil
}
