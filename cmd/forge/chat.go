package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jorge-barreto/forge/internal/completion"
	"github.com/jorge-barreto/forge/internal/generate"
	"github.com/jorge-barreto/forge/internal/ux"
)

// chatSession holds one interactive conversation. Every reply goes
// through a generation pass, so code in it lands on disk immediately.
type chatSession struct {
	comp    completion.Completer
	conv    *completion.Conversation
	pass    *generate.Pass
	written generate.Report
}

func (s *chatSession) loop(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprintf(ux.Out, "%syou>%s ", ux.Cyan, ux.Reset)
		if !sc.Scan() {
			fmt.Fprintln(ux.Out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "exit", "quit", "q":
			return nil
		case "/clear":
			s.conv.Reset()
			ux.Notice("conversation cleared")
			continue
		case "/files":
			s.listFiles()
			continue
		}

		if err := s.turn(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			ux.Error(err)
		}
	}
}

// turn sends one message and writes any code blocks in the reply.
func (s *chatSession) turn(ctx context.Context, msg string) error {
	reply, err := s.conv.Ask(ctx, s.comp, msg)
	if err != nil {
		return err
	}
	ux.Response(reply)
	if !generate.HasBlocks(reply) {
		return nil
	}
	rep := s.pass.Run(ctx, reply)
	ux.Report(rep)
	s.written.Merge(rep)
	return nil
}

func (s *chatSession) listFiles() {
	written := s.written.Written()
	if len(written) == 0 {
		ux.Notice("no files written yet")
		return
	}
	paths := make([]string, 0, len(written))
	for p := range written {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		fmt.Fprintf(ux.Out, "  %s\n", p)
	}
}
