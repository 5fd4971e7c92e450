/*
Package relay is a transport-agnostic command execution core for driving
external equipment and tooling from test hosts.

It sends a single command over one of several transports (local process, SSH
session, serial link), captures whatever the far side produces, enforces a
hard deadline with forced teardown, and hands back a lossily decoded
transcript. Dangerous commands can be gated behind an operator confirmation
step that waits for a human verdict without blocking the command itself.

# Concept

Relay treats every command the same way regardless of how it travels: open a
connection, send the payload, collect output until the line goes quiet or the
deadline fires, tear down, decode. The transports are adapters behind one
small contract, so hosts pick a backend per command rather than per program.
This Hexagonal Architecture allows Relay to be embedded in any interface:
CLI, HTTP console, or AI Agent infrastructure.

# Key Features

  - Uniform Transports: process, SSH session, and serial behave identically
    from the caller's perspective.
  - Bounded Execution: a deadline controller guarantees the call returns even
    when the far side wedges, keeping whatever output was captured.
  - Operator Confirmation: commands can require a human verdict; the verdict
    is recorded independently of what the command printed.
  - Total Decoding: raw bytes always produce a printable transcript, garbage
    included.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"time"

		"github.com/aretw0/relay"
		"github.com/aretw0/relay/pkg/domain"
	)

	func main() {
		r := relay.New()

		res, err := r.Dispatch(context.Background(), domain.Command{
			Argv:      []string{"uname", "-a"},
			Transport: domain.TransportProcess,
			Timeout:   2 * time.Second,
		})
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(res.Text)
		if !res.Completed {
			fmt.Println("(command hit its deadline)")
		}
	}
*/
package relay
