package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	defaultReadyTimeout = 4 * time.Second
	lineBuffer          = 256
)

// Options are sent with setoption during the handshake. Zero values keep
// the engine default, except SkillLevel when ForceSkill is set.
type Options struct {
	Threads    int
	SkillLevel int
	ForceSkill bool
	HashMB     int
	MultiPV    int
}

// Session is one engine subprocess speaking UCI over stdin/stdout.
type Session struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewSession starts the engine and completes the uci/isready handshake.
// The process is bound to ctx; cancelling it kills the engine.
func NewSession(ctx context.Context, binaryPath string, opt Options) (*Session, error) {
	if err := validateOptions(opt); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	s := &Session{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, lineBuffer),
	}
	go s.pump(stdoutPipe)

	if err := s.initialize(ctx, opt); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Factory adapts NewSession to a WorkerFactory.
func Factory(binaryPath string, opt Options) WorkerFactory {
	return func(ctx context.Context) (Worker, error) {
		return NewSession(ctx, binaryPath, opt)
	}
}

// Send writes one command line; a trailing newline is added when missing.
func (s *Session) Send(cmd string) error {
	if !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}
	return s.send(cmd)
}

// Lines yields trimmed stdout lines and is closed when the engine exits.
func (s *Session) Lines() <-chan string { return s.lines }

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		_ = s.send("quit\n")

		s.mu.Lock()
		if s.stdin != nil {
			s.stdin.Close()
		}
		s.mu.Unlock()

		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		if s.cmd != nil {
			err := s.cmd.Wait()
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				s.closeErr = err
			}
		}
	})
	return s.closeErr
}

func (s *Session) pump(r io.Reader) {
	defer close(s.lines)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		s.lines <- line
	}
}

func validateOptions(opt Options) error {
	if opt.SkillLevel < 0 || opt.SkillLevel > 20 {
		return fmt.Errorf("skill level %d out of range 0-20", opt.SkillLevel)
	}
	if opt.HashMB < 0 {
		return fmt.Errorf("hash size must be >= 0: %d", opt.HashMB)
	}
	if opt.MultiPV < 0 {
		return fmt.Errorf("multipv must be >= 0: %d", opt.MultiPV)
	}
	if opt.Threads < 0 {
		return fmt.Errorf("threads must be >= 0: %d", opt.Threads)
	}
	return nil
}

func (s *Session) initialize(ctx context.Context, opt Options) error {
	initCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("uci\n"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := s.awaitToken(initCtx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}

	if err := s.applyOptions(opt); err != nil {
		return err
	}

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(initCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	if err := s.send("ucinewgame\n"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}
	return nil
}

// applyOptions only sends options that were configured; the engine keeps
// its own defaults otherwise.
func (s *Session) applyOptions(opt Options) error {
	var cmds []string
	if opt.Threads > 0 {
		cmds = append(cmds, fmt.Sprintf("setoption name Threads value %d\n", opt.Threads))
	}
	if opt.HashMB > 0 {
		cmds = append(cmds, fmt.Sprintf("setoption name Hash value %d\n", opt.HashMB))
	}
	if opt.SkillLevel > 0 || opt.ForceSkill {
		cmds = append(cmds, fmt.Sprintf("setoption name Skill Level value %d\n", opt.SkillLevel))
	}
	multiPV := opt.MultiPV
	if multiPV <= 0 {
		multiPV = 1
	}
	cmds = append(cmds, fmt.Sprintf("setoption name MultiPV value %d\n", multiPV))
	for _, cmd := range cmds {
		if err := s.send(cmd); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}
	return nil
}

func (s *Session) send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.stdin, msg)
	return err
}

func (s *Session) awaitToken(ctx context.Context, token string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-s.lines:
			if !ok {
				return io.ErrUnexpectedEOF
			}
			if strings.Contains(line, token) {
				return nil
			}
		}
	}
}
