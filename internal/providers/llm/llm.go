package llm

import (
	"context"
	"strings"

	"github.com/yoockh/voicedit/internal/utils"
)

// Provider runs one deterministic completion: a fixed system framing plus
// caller content. Implementations pin temperature to zero.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const correctionPrompt = `You are an AI tool for fixing recognised text.
The next message from user is a result of voice recognition. It contains text user wanted to be recognised, but also it may contain some commands user wanted to apply to the recognised text. You need to answer with the text user wanted to be recognised with following editions:
1. Some words may be recognised incorrectly, if you think it is the case, fix them.
2. Fix grammar and punctuation.
3. If there are some commands, apply them to text and remove commands from the text.
4. Do not include any comments from you, only answer with fixed text.`

const editPrompt = `You are an AI tool for editing text with voice commands.
The next message from user contains two sections. TEXT is the text to edit. COMMANDS is a result of voice recognition describing the edits user wants to make. You need to answer with TEXT after applying COMMANDS to it:
1. Some words in COMMANDS may be recognised incorrectly, if you think it is the case, interpret them as user intended.
2. Apply every command to TEXT. Do not add content that was not asked for.
3. Do not include any comments from you, only answer with the edited text.`

// Transformer implements the two text transformations on top of a Provider.
type Transformer struct {
	p Provider
}

func NewTransformer(p Provider) *Transformer {
	return &Transformer{p: p}
}

// Correct cleans up a raw transcript and applies inline spoken commands.
func (t *Transformer) Correct(ctx context.Context, raw string) (string, error) {
	const op = "Transformer.Correct"

	out, err := t.p.Complete(ctx, correctionPrompt, raw)
	if err != nil {
		return "", upstream(op, err)
	}
	return strings.TrimSpace(out), nil
}

// ApplyCommands edits target following the instructions in commands.
func (t *Transformer) ApplyCommands(ctx context.Context, target, commands string) (string, error) {
	const op = "Transformer.ApplyCommands"

	out, err := t.p.Complete(ctx, editPrompt, EditMessage(target, commands))
	if err != nil {
		return "", upstream(op, err)
	}
	return strings.TrimSpace(out), nil
}

// EditMessage renders the user content sent with the edit framing.
func EditMessage(target, commands string) string {
	var b strings.Builder
	b.WriteString("TEXT:\n")
	b.WriteString(target)
	b.WriteString("\n\nCOMMANDS:\n")
	b.WriteString(commands)
	return b.String()
}

func upstream(op string, err error) error {
	if utils.IsCode(err, utils.CodeUpstream) {
		return err
	}
	return utils.E(utils.CodeUpstream, op, "text transformation failed", err)
}
