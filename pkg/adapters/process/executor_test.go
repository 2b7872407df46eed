package process_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/silvershell/pkg/adapters/process"
	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX utilities (echo, sh, sleep)")
	}
}

func TestExecutor_Execute(t *testing.T) {
	skipOnWindows(t)
	exec := process.NewExecutor()
	ctx := context.Background()

	t.Run("Captures Stdout", func(t *testing.T) {
		res := exec.Execute(ctx, "echo hello")
		assert.True(t, res.Succeeded)
		assert.Equal(t, domain.FailureNone, res.Failure)
		assert.Equal(t, "hello\n", res.Output)
		assert.Equal(t, domain.Command("echo hello"), res.Command)
	})

	t.Run("Honours Quotes", func(t *testing.T) {
		res := exec.Execute(ctx, `echo "a   b" 'c d' e\ f`)
		assert.True(t, res.Succeeded)
		assert.Equal(t, "a   b c d e f\n", res.Output)
	})

	t.Run("Does Not Interpret Shell Metacharacters", func(t *testing.T) {
		res := exec.Execute(ctx, "echo hi; rm -rf / | cat > out *")
		assert.True(t, res.Succeeded)
		assert.Equal(t, "hi; rm -rf / | cat > out *\n", res.Output)
	})

	t.Run("Merges Stderr", func(t *testing.T) {
		res := exec.Execute(ctx, `sh -c "echo out; echo err 1>&2"`)
		assert.True(t, res.Succeeded)
		assert.Contains(t, res.Output, "out")
		assert.Contains(t, res.Output, "err")
	})

	t.Run("Non Zero Exit With Output Is Not A Failure", func(t *testing.T) {
		res := exec.Execute(ctx, `sh -c "echo partial; exit 3"`)
		assert.True(t, res.Succeeded)
		assert.Equal(t, domain.FailureNone, res.Failure)
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "partial\n", res.Output)
	})

	t.Run("Non Zero Exit Without Output Fails", func(t *testing.T) {
		res := exec.Execute(ctx, `sh -c "exit 2"`)
		assert.False(t, res.Succeeded)
		assert.Equal(t, domain.FailureSpawnOrRuntime, res.Failure)
		assert.Equal(t, 2, res.ExitCode)
		assert.Contains(t, res.Output, "Err: Execution failed")
	})

	t.Run("Program Not Found", func(t *testing.T) {
		res := exec.Execute(ctx, "nonexistent_binary_xyz --flag")
		assert.False(t, res.Succeeded)
		assert.Equal(t, domain.FailureProgramNotFound, res.Failure)
		assert.Equal(t, "Err: Command not found: 'nonexistent_binary_xyz'", res.Output)
		assert.NotEmpty(t, res.ErrorDetail)
	})

	t.Run("Unterminated Quote", func(t *testing.T) {
		res := exec.Execute(ctx, `echo "oops`)
		assert.False(t, res.Succeeded)
		assert.Equal(t, domain.FailureSpawnOrRuntime, res.Failure)
		assert.Contains(t, res.Output, "Err: Execution failed")
	})
}

func TestExecutor_Timeout(t *testing.T) {
	skipOnWindows(t)
	exec := process.NewExecutor(process.WithTimeout(100 * time.Millisecond))

	start := time.Now()
	res := exec.Execute(context.Background(), "sleep 5")

	assert.Less(t, time.Since(start), 4*time.Second)
	assert.False(t, res.Succeeded)
	assert.Equal(t, domain.FailureSpawnOrRuntime, res.Failure)
	assert.Contains(t, res.ErrorDetail, "deadline exceeded")
}

func TestExecutor_BaseDirAndEnv(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	exec := process.NewExecutor(process.WithBaseDir(dir), process.WithEnv("SILVERSHELL_PROBE=ok"))

	res := exec.Execute(context.Background(), "pwd")
	require.True(t, res.Succeeded)
	assert.Contains(t, res.Output, dir)

	res = exec.Execute(context.Background(), `sh -c "echo $SILVERSHELL_PROBE"`)
	require.True(t, res.Succeeded)
	assert.Equal(t, "ok\n", res.Output)
}

func TestTokenize(t *testing.T) {
	args, err := process.Tokenize(`nmap -sV "my host" --script=http\*`)
	require.NoError(t, err)
	assert.Equal(t, []string{"nmap", "-sV", "my host", "--script=http*"}, args)

	_, err = process.Tokenize("   ")
	assert.ErrorIs(t, err, domain.ErrEmptyCommand)
}
