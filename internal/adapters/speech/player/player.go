// Package player plays encoded audio clips through a command line player reading stdin.
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

type command struct {
	name string
	args []string
}

// DefaultCommands is the lookup order. Each reads the clip from stdin.
var DefaultCommands = []command{
	{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "-"}},
	{name: "mpg123", args: []string{"-q", "-"}},
}

type process interface {
	Wait() error
	Kill() error
}

type startFunc func(path string, args []string, stdin io.Reader) (process, error)

type Player struct {
	commands []command
	lookPath func(string) (string, error)
	start    startFunc
}

var _ ports.AudioPlayer = (*Player)(nil)

func New() *Player {
	return &Player{commands: DefaultCommands, lookPath: exec.LookPath, start: startProcess}
}

func (p *Player) Available() bool {
	_, _, err := p.locate()
	return err == nil
}

func (p *Player) Load(ctx context.Context, audio []byte) (ports.AudioElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("audio clip is empty")
	}
	path, cmd, err := p.locate()
	if err != nil {
		return nil, err
	}
	return &Element{
		path:  path,
		args:  cmd.args,
		audio: audio,
		start: p.start,
		ended: make(chan struct{}),
	}, nil
}

func (p *Player) locate() (string, command, error) {
	for _, cmd := range p.commands {
		path, err := p.lookPath(cmd.name)
		if err == nil {
			return path, cmd, nil
		}
	}
	return "", command{}, fmt.Errorf("%w: no audio player installed", domain.ErrEngineUnavailable)
}

// Element is one clip. A subprocess cannot pause mid-stream, so Pause stops the player and
// the next Play starts again from the beginning; Rewind therefore has nothing to reset.
type Element struct {
	path  string
	args  []string
	audio []byte
	start startFunc

	mu       sync.Mutex
	running  process
	ended    chan struct{}
	endOnce  sync.Once
	finished bool
}

var _ ports.AudioElement = (*Element)(nil)

func (e *Element) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running != nil || e.finished {
		return nil
	}
	proc, err := e.start(e.path, e.args, bytes.NewReader(e.audio))
	if err != nil {
		return fmt.Errorf("start audio player: %w", err)
	}
	e.running = proc
	go e.wait(proc)
	return nil
}

func (e *Element) wait(proc process) {
	_ = proc.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running != proc {
		// Killed by Pause.
		return
	}
	e.running = nil
	e.finished = true
	e.endOnce.Do(func() { close(e.ended) })
}

func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running == nil {
		return
	}
	_ = e.running.Kill()
	e.running = nil
}

func (e *Element) Rewind() {}

func (e *Element) Ended() <-chan struct{} {
	return e.ended
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func startProcess(path string, args []string, stdin io.Reader) (process, error) {
	cmd := exec.Command(path, args...)
	cmd.Stdin = stdin
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd: cmd}, nil
}
