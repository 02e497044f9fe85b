package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/directory"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/metrics"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/rpc"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/stream"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/wallet"
)

// Directory resolves a sender identity to its deposit address.
type Directory interface {
	Resolve(ctx context.Context, identity string) (string, error)
}

// Balances computes confirmation-adjusted balances.
type Balances interface {
	Resolve(ctx context.Context, address string, depth wallet.Depth) (wallet.Amount, error)
}

// Ledger is the mutating slice of the daemon API the dispatcher uses.
type Ledger interface {
	GetAccount(ctx context.Context, address string) error
	SendTransaction(ctx context.Context, tx rpc.TransactionRequest) (string, error)
}

// Responder posts a public reply in the originating conversation.
type Responder interface {
	Post(ctx context.Context, text, inReplyTo string) error
}

// Notifier forwards out-of-band text to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Settings are the command-policy constants, loaded once at startup.
// All amounts are in base units.
type Settings struct {
	Handle           string
	FullName         string
	ShortName        string
	Fee              wallet.Amount
	MinTip           wallet.Amount
	MinWithdraw      wallet.Amount
	MinConfirmations wallet.Depth
	TokenPrefix      string
	TokenLength      int
}

// Deps are the dispatcher's collaborators.
type Deps struct {
	Directory Directory
	Balances  Balances
	Ledger    Ledger
	Responder Responder
	Notifier  Notifier
	Limiter   *SenderLimiter
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

// Dispatcher validates and executes commands. Each inbound message is a
// transient unit of work: exactly one reply per command, at most one
// ledger mutation, no state kept across commands beyond the per-sender
// locks.
type Dispatcher struct {
	settings Settings
	conv     wallet.Converter
	decoder  *Decoder
	deps     Deps
	newToken func() string

	mu      sync.Mutex
	senders map[string]*sync.Mutex
}

func NewDispatcher(settings Settings, conv wallet.Converter, decoder *Decoder, deps Deps) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		conv:     conv,
		decoder:  decoder,
		deps:     deps,
		newToken: uniquenessToken(settings.TokenLength),
		senders:  make(map[string]*sync.Mutex),
	}
}

// result is the outcome of one handled command. reply is always set;
// err marks an unexpected (non-validation) failure that additionally
// goes to the operator channel.
type result struct {
	reply  string
	reject bool
	err    error
}

// HandleMessage processes one inbound event end to end. Messages that do
// not carry a command are forwarded to the operator channel verbatim.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg stream.Message) {
	sender := directory.Normalize(msg.Sender)
	if sender == "" || sender == strings.ToLower(d.settings.Handle) {
		return
	}

	parsed, ok := Parse(msg.Text, d.settings.Handle)
	if !ok {
		d.notify(ctx, msg.Sender+":\n"+msg.Text)
		return
	}
	if !d.deps.Limiter.Allow(sender, time.Now()) {
		d.deps.Log.Warn("rate limited", "sender", sender, "command", parsed.Name)
		return
	}
	d.deps.Log.Info("inbound command", "sender", sender, "command", parsed.Name, "message_id", msg.ID)

	cmd, err := d.decoder.Decode(parsed.Name, parsed.Args)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			d.deps.Metrics.Rejections.Inc()
			d.respond(ctx, sender, rej.Reply, msg.ID)
			return
		}
		d.deps.Log.Error("decode failed", "command", parsed.Name, "error", err)
		return
	}

	res := d.execute(ctx, sender, cmd)
	d.respond(ctx, sender, res.reply, msg.ID)
	d.deps.Metrics.CommandsProcessed.WithLabelValues(commandName(cmd)).Inc()
	switch {
	case res.err != nil:
		d.deps.Metrics.TransportFailures.Inc()
		d.deps.Log.Error("command failed", "command", parsed.Name, "sender", sender, "error", res.err)
		d.notify(ctx, fmt.Sprintf("command !%s from %s failed: %v", parsed.Name, sender, res.err))
	case res.reject:
		d.deps.Metrics.Rejections.Inc()
		d.deps.Log.Warn("command rejected", "command", parsed.Name, "sender", sender)
	}
}

func (d *Dispatcher) execute(ctx context.Context, sender string, cmd Command) result {
	switch c := cmd.(type) {
	case BalanceCmd:
		return d.handleBalance(ctx, sender)
	case AddressCmd:
		return d.handleAddress(ctx, sender)
	case TipCmd:
		defer d.lockSender(sender)()
		return d.handleTip(ctx, sender, c)
	case WithdrawCmd:
		defer d.lockSender(sender)()
		return d.handleWithdraw(ctx, sender, c)
	case SendCmd:
		defer d.lockSender(sender)()
		return d.handleSend(ctx, sender, c)
	case HelpCmd:
		return result{reply: "Here is a list of commands: !balance !send !tip !withdraw !address"}
	case UnknownCmd:
		return result{reply: "I'm sorry, I don't recognize that command"}
	default:
		return result{reply: "I'm sorry, I don't recognize that command"}
	}
}

func (d *Dispatcher) handleBalance(ctx context.Context, sender string) result {
	address, err := d.deps.Directory.Resolve(ctx, sender)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	confirmed, err := d.deps.Balances.Resolve(ctx, address, d.settings.MinConfirmations)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	raw, err := d.deps.Balances.Resolve(ctx, address, wallet.Latest)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}

	reply := fmt.Sprintf("Your current balance is %s $%s.", d.conv.Format(confirmed), d.settings.ShortName)
	if unconfirmed := raw - confirmed; unconfirmed > 0 {
		reply += fmt.Sprintf(" ( Unconfirmed: %s $%s )", d.conv.Format(unconfirmed), d.settings.ShortName)
	}
	return result{reply: reply}
}

func (d *Dispatcher) handleAddress(ctx context.Context, sender string) result {
	address, err := d.deps.Directory.Resolve(ctx, sender)
	if err != nil {
		return result{reply: "I'm sorry, something went wrong while getting the address", err: err}
	}
	return result{reply: "Your deposit address is " + address}
}

func (d *Dispatcher) handleTip(ctx context.Context, sender string, cmd TipCmd) result {
	if cmd.Recipient == sender {
		return result{reply: "I'm sorry, you can't tip yourself!", reject: true}
	}
	if cmd.Amount < d.settings.MinTip {
		short := d.settings.MinTip - cmd.Amount
		return result{
			reply: fmt.Sprintf("I'm sorry, your tip to @%s (%s) is smaller than the minimum amount allowed (you are short %s)",
				cmd.Recipient, d.amount(cmd.Amount), d.amount(short)),
			reject: true,
		}
	}

	fromAddress, err := d.deps.Directory.Resolve(ctx, sender)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	balance, err := d.deps.Balances.Resolve(ctx, fromAddress, d.settings.MinConfirmations)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	// The sender pays the fee twice: once for this transfer and once
	// forwarded with the tip so the recipient can withdraw in full.
	needed := cmd.Amount + 2*d.settings.Fee
	if balance < needed {
		return result{
			reply:  fmt.Sprintf("I'm sorry, you don't have enough funds (you are short %s)", d.amount(needed-balance)),
			reject: true,
		}
	}

	toAddress, err := d.deps.Directory.Resolve(ctx, cmd.Recipient)
	if err != nil {
		return result{reply: fmt.Sprintf("Could not send coins to @%s", cmd.Recipient), err: err}
	}
	_, err = d.deps.Ledger.SendTransaction(ctx, rpc.TransactionRequest{
		From:  fromAddress,
		To:    toAddress,
		Value: int64(cmd.Amount + d.settings.Fee),
		Fee:   int64(d.settings.Fee),
	})
	if err != nil {
		return result{reply: fmt.Sprintf("Could not send coins to @%s", cmd.Recipient), err: err}
	}
	return result{reply: fmt.Sprintf("tipped @%s %s! Tweet @%s !help to claim your tip",
		cmd.Recipient, d.amount(cmd.Amount), d.settings.Handle)}
}

func (d *Dispatcher) handleWithdraw(ctx context.Context, sender string, cmd WithdrawCmd) result {
	if res, ok := d.checkDestination(ctx, cmd.To); !ok {
		return res
	}

	fromAddress, err := d.deps.Directory.Resolve(ctx, sender)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	balance, err := d.deps.Balances.Resolve(ctx, fromAddress, d.settings.MinConfirmations)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	if needed := d.settings.MinWithdraw + d.settings.Fee; balance < needed {
		return result{
			reply: fmt.Sprintf("I'm sorry, the minimum withdrawal amount is %s (you are short %s)",
				d.amount(d.settings.MinWithdraw), d.amount(needed-balance)),
			reject: true,
		}
	}

	amount := balance - d.settings.Fee
	_, err = d.deps.Ledger.SendTransaction(ctx, rpc.TransactionRequest{
		From:  fromAddress,
		To:    cmd.To,
		Value: int64(amount),
		Fee:   int64(d.settings.Fee),
	})
	if err != nil {
		return result{reply: "Could not send coins to " + cmd.To, err: err}
	}
	return result{reply: fmt.Sprintf("%s has been withdrawn from your account to %s", d.amount(amount), cmd.To)}
}

func (d *Dispatcher) handleSend(ctx context.Context, sender string, cmd SendCmd) result {
	if res, ok := d.checkDestination(ctx, cmd.To); !ok {
		return res
	}

	fromAddress, err := d.deps.Directory.Resolve(ctx, sender)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	balance, err := d.deps.Balances.Resolve(ctx, fromAddress, d.settings.MinConfirmations)
	if err != nil {
		return result{reply: "I'm sorry, I could not get your balance", err: err}
	}
	if needed := cmd.Amount + d.settings.Fee; balance < needed {
		return result{
			reply:  fmt.Sprintf("I'm sorry, you don't have enough funds (you are short %s)", d.amount(needed-balance)),
			reject: true,
		}
	}
	if needed := d.settings.MinWithdraw + d.settings.Fee; cmd.Amount < needed {
		return result{
			reply: fmt.Sprintf("I'm sorry, the minimum amount is %s (you are short %s)",
				d.amount(d.settings.MinWithdraw), d.amount(needed-cmd.Amount)),
			reject: true,
		}
	}

	_, err = d.deps.Ledger.SendTransaction(ctx, rpc.TransactionRequest{
		From:  fromAddress,
		To:    cmd.To,
		Value: int64(cmd.Amount),
		Fee:   int64(d.settings.Fee),
	})
	if err != nil {
		return result{reply: "Could not send coins to " + cmd.To, err: err}
	}
	return result{reply: fmt.Sprintf("%s has been sent from your account to %s", d.amount(cmd.Amount), cmd.To)}
}

// checkDestination verifies the external address exists on the ledger.
// An RPC-level rejection means the address is bad (validation); any
// other transport failure is unexpected.
func (d *Dispatcher) checkDestination(ctx context.Context, address string) (result, bool) {
	err := d.deps.Ledger.GetAccount(ctx, address)
	if err == nil {
		return result{}, true
	}
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.Kind == rpc.KindRPC {
		return result{
			reply:  fmt.Sprintf("I'm sorry, %s is invalid or something went wrong with the address validation", address),
			reject: true,
		}, false
	}
	return result{
		reply: fmt.Sprintf("I'm sorry, %s is invalid or something went wrong with the address validation", address),
		err:   err,
	}, false
}

func (d *Dispatcher) respond(ctx context.Context, sender, text, inReplyTo string) {
	status := fmt.Sprintf("@%s %s [%s%s]", sender, text, d.settings.TokenPrefix, d.newToken())
	// Posting failures are logged, never retried; the command itself
	// has already run to completion.
	if err := d.deps.Responder.Post(ctx, status, inReplyTo); err != nil {
		d.deps.Log.Error("could not post reply", "sender", sender, "error", err)
	}
}

func (d *Dispatcher) notify(ctx context.Context, text string) {
	if err := d.deps.Notifier.Notify(ctx, text); err != nil {
		d.deps.Log.Error("could not notify operator", "error", err)
		return
	}
	d.deps.Metrics.Notifications.Inc()
}

func (d *Dispatcher) amount(a wallet.Amount) string {
	return d.conv.Format(a) + " $" + d.settings.ShortName
}

// lockSender serializes mutating commands from one identity so two rapid
// transfers cannot both pass the balance check against a stale snapshot.
func (d *Dispatcher) lockSender(sender string) func() {
	d.mu.Lock()
	lock, ok := d.senders[sender]
	if !ok {
		lock = &sync.Mutex{}
		d.senders[sender] = lock
	}
	d.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case BalanceCmd:
		return "balance"
	case AddressCmd:
		return "address"
	case TipCmd:
		return "tip"
	case WithdrawCmd:
		return "withdraw"
	case SendCmd:
		return "send"
	case HelpCmd:
		return "help"
	default:
		return "unknown"
	}
}

func uniquenessToken(length int) func() string {
	return func() string {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		if length > 0 && length < len(token) {
			token = token[:length]
		}
		return token
	}
}
