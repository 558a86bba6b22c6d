package sshauth

import "fmt"

// KbdInt is one keyboard-interactive challenge/response round
// (§3, RFC 4256). Prompts and echo flags arrive together in an
// INFO_REQUEST; answers are filled in by the caller between rounds.
type KbdInt struct {
	Name        string
	Instruction string
	Prompts     []string
	Echo        []bool
	Answers     []string
}

// newKbdInt validates and constructs a challenge from a parsed
// INFO_REQUEST. nprompts must be in (0, KbdIntMaxPrompt] (§4.2, §8).
func newKbdInt(name, instruction string, prompts []string, echo []bool) (*KbdInt, error) {
	n := len(prompts)
	if n == 0 || n > KbdIntMaxPrompt {
		return nil, protocolError(fmt.Sprintf("invalid prompt count %d", n))
	}
	if len(echo) != n {
		return nil, protocolError("prompt/echo count mismatch")
	}
	return &KbdInt{
		Name:        name,
		Instruction: instruction,
		Prompts:     prompts,
		Echo:        echo,
	}, nil
}

// wipe clears every prompt, echo flag, and answer before the
// challenge is discarded (§3, §5, §8). Echo flags are zeroed in place;
// the strings are only dropped (see zeroString), so their original
// bytes stay in memory until the garbage collector reclaims them.
func (k *KbdInt) wipe() {
	if k == nil {
		return
	}
	for i := range k.Prompts {
		zeroString(&k.Prompts[i])
	}
	for i := range k.Echo {
		k.Echo[i] = false
	}
	for i := range k.Answers {
		zeroString(&k.Answers[i])
	}
	zeroString(&k.Name)
	zeroString(&k.Instruction)
	k.Prompts = nil
	k.Echo = nil
	k.Answers = nil
}

// zeroString clears *s. The []byte conversion copies the string, so
// the bytes zeroed here are that copy; the string's own backing bytes
// are not overwritten.
func zeroString(s *string) {
	if *s == "" {
		return
	}
	b := []byte(*s)
	for i := range b {
		b[i] = 0
	}
	*s = ""
}

// NPrompts returns the number of prompts in the current challenge, or
// an error if there is none (getnprompts, §4.6).
func (k *KbdInt) NPrompts() (int, error) {
	if k == nil {
		return 0, fmt.Errorf("sshauth: no keyboard-interactive challenge pending")
	}
	return len(k.Prompts), nil
}

// GetName returns the challenge name, or "" if there is none
// (getname, §4.6).
func (k *KbdInt) GetName() string {
	if k == nil {
		return ""
	}
	return k.Name
}

// GetInstruction returns the challenge instruction, or "" if there is
// none (getinstruction, §4.6).
func (k *KbdInt) GetInstruction() string {
	if k == nil {
		return ""
	}
	return k.Instruction
}

// GetPrompt returns prompt i and sets *echo, matching the source's
// preserved off-by-one: the bounds check accepts i == nprompts (§4.6,
// §9), but unlike the C source this can't be satisfied by reading one
// byte past a buffer, so it returns "" with echo left unset instead of
// corrupting memory.
func (k *KbdInt) GetPrompt(i int, echo *bool) (string, bool) {
	if k == nil || i < 0 || i > len(k.Prompts) {
		return "", false
	}
	if i == len(k.Prompts) {
		// off-by-one preserved for compatibility: the index check
		// passes but there is no (i+1)th prompt to read.
		return "", true
	}
	if echo != nil {
		*echo = k.Echo[i]
	}
	return k.Prompts[i], true
}

// SetAnswer lazily allocates Answers to NPrompts() slots, wipes any
// prior answer at i, and stores a copy of answer (setanswer, §4.6).
func (k *KbdInt) SetAnswer(i int, answer string) error {
	if k == nil {
		return fmt.Errorf("sshauth: no keyboard-interactive challenge pending")
	}
	if i < 0 || i >= len(k.Prompts) {
		return fmt.Errorf("sshauth: answer index %d out of range [0,%d)", i, len(k.Prompts))
	}
	if k.Answers == nil {
		k.Answers = make([]string, len(k.Prompts))
	}
	zeroString(&k.Answers[i])
	k.Answers[i] = answer
	return nil
}
