package sshauth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNewKbdIntValidation(t *testing.T) {
	_, err := newKbdInt("n", "i", nil, nil)
	require.Error(t, err, "zero prompts must be rejected")

	tooMany := make([]string, KbdIntMaxPrompt+1)
	echoTooMany := make([]bool, KbdIntMaxPrompt+1)
	_, err = newKbdInt("n", "i", tooMany, echoTooMany)
	require.Error(t, err)

	_, err = newKbdInt("n", "i", []string{"p1", "p2"}, []bool{true})
	require.Error(t, err, "mismatched prompt/echo counts must be rejected")

	k, err := newKbdInt("n", "i", []string{"Password:"}, []bool{false})
	require.NoError(t, err)
	require.Equal(t, 1, len(k.Prompts))
}

func TestKbdIntAccessors(t *testing.T) {
	k, err := newKbdInt("name", "instruction", []string{"P1:", "P2:"}, []bool{false, true})
	require.NoError(t, err)

	n, err := k.NPrompts()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "name", k.GetName())
	require.Equal(t, "instruction", k.GetInstruction())

	var echo bool
	prompt, ok := k.GetPrompt(0, &echo)
	require.True(t, ok)
	require.Equal(t, "P1:", prompt)
	require.False(t, echo)

	prompt, ok = k.GetPrompt(1, &echo)
	require.True(t, ok)
	require.Equal(t, "P2:", prompt)
	require.True(t, echo)
}

func TestKbdIntGetPromptOffByOneBoundary(t *testing.T) {
	k, err := newKbdInt("n", "i", []string{"only"}, []bool{false})
	require.NoError(t, err)

	// i == nprompts is accepted by the bounds check but returns no
	// prompt text, matching the preserved-but-made-safe quirk (§9).
	prompt, ok := k.GetPrompt(1, nil)
	require.True(t, ok)
	require.Equal(t, "", prompt)

	_, ok = k.GetPrompt(2, nil)
	require.False(t, ok)
	_, ok = k.GetPrompt(-1, nil)
	require.False(t, ok)
}

func TestKbdIntOnNilReceiver(t *testing.T) {
	var k *KbdInt
	require.Equal(t, "", k.GetName())
	require.Equal(t, "", k.GetInstruction())
	_, ok := k.GetPrompt(0, nil)
	require.False(t, ok)
	_, err := k.NPrompts()
	require.Error(t, err)
	require.Error(t, k.SetAnswer(0, "x"))
	k.wipe() // must not panic
}

func TestKbdIntSetAnswerAndWipe(t *testing.T) {
	k, err := newKbdInt("n", "i", []string{"P1:", "P2:"}, []bool{false, false})
	require.NoError(t, err)

	require.NoError(t, k.SetAnswer(0, "secret"))
	require.NoError(t, k.SetAnswer(1, "other"))
	require.Error(t, k.SetAnswer(2, "oob"))
	if diff := cmp.Diff([]string{"secret", "other"}, k.Answers); diff != "" {
		t.Errorf("Answers mismatch (-want +got):\n%s", diff)
	}

	k.wipe()
	require.Nil(t, k.Prompts)
	require.Nil(t, k.Echo)
	require.Nil(t, k.Answers)
	require.Equal(t, "", k.Name)
	require.Equal(t, "", k.Instruction)
}
