package bot

import (
	"fmt"
	"regexp"

	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/directory"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/wallet"
)

// Command is the closed set of things the bot knows how to do. Adding a
// command means adding a variant here and a case to the dispatcher.
type Command interface {
	command()
}

type BalanceCmd struct{}

type AddressCmd struct{}

type HelpCmd struct{}

type UnknownCmd struct {
	Name string
}

type TipCmd struct {
	Recipient string
	Amount    wallet.Amount
}

type WithdrawCmd struct {
	To string
}

type SendCmd struct {
	To     string
	Amount wallet.Amount
}

func (BalanceCmd) command()  {}
func (AddressCmd) command()  {}
func (HelpCmd) command()     {}
func (UnknownCmd) command()  {}
func (TipCmd) command()      {}
func (WithdrawCmd) command() {}
func (SendCmd) command()     {}

// Rejection is a user-facing validation failure. It carries the exact
// reply text and never reaches the operator channel.
type Rejection struct {
	Reply string
}

func (r *Rejection) Error() string { return r.Reply }

var amountPattern = `([\d.]+)`

// Decoder turns a parsed command name and argument string into a typed
// Command, rejecting malformed arguments before any RPC is attempted.
type Decoder struct {
	handle   string
	fullName string
	conv     wallet.Converter
	tipArgs  *regexp.Regexp
	wdArgs   *regexp.Regexp
	sendArgs *regexp.Regexp
}

func NewDecoder(handle, coinFullName, addressPattern string, conv wallet.Converter) (*Decoder, error) {
	tipArgs, err := regexp.Compile(`^@?(\S+)\s+` + amountPattern)
	if err != nil {
		return nil, err
	}
	wdArgs, err := regexp.Compile(`^(` + addressPattern + `)`)
	if err != nil {
		return nil, err
	}
	sendArgs, err := regexp.Compile(`^(` + addressPattern + `)\s+` + amountPattern)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		handle:   handle,
		fullName: coinFullName,
		conv:     conv,
		tipArgs:  tipArgs,
		wdArgs:   wdArgs,
		sendArgs: sendArgs,
	}, nil
}

// Decode maps (name, args) to a Command. Shape failures come back as a
// *Rejection with the usage or invalid-amount reply.
func (d *Decoder) Decode(name, args string) (Command, error) {
	switch name {
	case "balance":
		return BalanceCmd{}, nil
	case "address":
		return AddressCmd{}, nil
	case "help":
		return HelpCmd{}, nil
	case "tip":
		m := d.tipArgs.FindStringSubmatch(args)
		if m == nil {
			return nil, &Rejection{Reply: fmt.Sprintf("Usage: <@%s !tip [nickname] [amount]>", d.handle)}
		}
		amount, err := d.parseAmount(m[2])
		if err != nil {
			return nil, err
		}
		return TipCmd{Recipient: directory.Normalize(m[1]), Amount: amount}, nil
	case "withdraw":
		m := d.wdArgs.FindStringSubmatch(args)
		if m == nil {
			return nil, &Rejection{Reply: fmt.Sprintf("Usage: <@%s !withdraw [%s address]>", d.handle, d.fullName)}
		}
		return WithdrawCmd{To: m[1]}, nil
	case "send":
		m := d.sendArgs.FindStringSubmatch(args)
		if m == nil {
			return nil, &Rejection{Reply: fmt.Sprintf("Usage: <@%s !send [%s address] [amount]>", d.handle, d.fullName)}
		}
		amount, err := d.parseAmount(m[2])
		if err != nil {
			return nil, err
		}
		return SendCmd{To: m[1], Amount: amount}, nil
	default:
		return UnknownCmd{Name: name}, nil
	}
}

func (d *Decoder) parseAmount(raw string) (wallet.Amount, error) {
	amount, err := d.conv.Parse(raw)
	if err != nil || amount <= 0 {
		return 0, &Rejection{Reply: fmt.Sprintf("%s is an invalid amount", raw)}
	}
	return amount, nil
}
