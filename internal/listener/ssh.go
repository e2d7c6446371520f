package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/crypto/ssh"
)

const sshBanner = "go-palace: anonymous access, no password needed.\r\n"

// SSHListener serves the palace conversation to ssh clients. Any user name is
// accepted without authentication; each session channel that asks for a shell
// gets its own conversation.
type SSHListener struct {
	addr    string
	cm      *ConnectionManager
	hostKey ssh.Signer
}

func NewSSHListener(addr string, cm *ConnectionManager, hostKey ssh.Signer) *SSHListener {
	return &SSHListener{
		addr:    addr,
		cm:      cm,
		hostKey: hostKey,
	}
}

func (l *SSHListener) serverConfig() *ssh.ServerConfig {
	config := &ssh.ServerConfig{
		NoClientAuth:  true,
		ServerVersion: "SSH-2.0-go-palace",
		BannerCallback: func(ssh.ConnMetadata) string {
			return sshBanner
		},
	}
	config.AddHostKey(l.hostKey)
	return config
}

func (l *SSHListener) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listening for ssh on %s: %w", l.addr, err)
	}

	slog.InfoContext(ctx, "listening for ssh", "addr", ln.Addr().String())

	config := l.serverConfig()
	group := newConnGroup(ctx, l.cm)
	defer group.close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		go l.handleConnection(group, conn, config)
	}
}

func (l *SSHListener) handleConnection(group *connGroup, conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		slog.WarnContext(group.ctx, "ssh handshake", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	defer sshConn.Close()

	// Closing the connection ends the channel loop below.
	go func() {
		<-group.done()
		sshConn.Close()
	}()
	go ssh.DiscardRequests(reqs)

	remote := fmt.Sprintf("%s@%s", sshConn.User(), sshConn.RemoteAddr())
	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.WarnContext(group.ctx, "accepting ssh channel", "remote", remote, "error", err)
			continue
		}

		shell := make(chan struct{})
		go replySessionRequests(requests, shell)

		select {
		case <-shell:
			group.serve("ssh", remote, ch)
		case <-group.done():
		}
		ch.Close()
	}
}

// replySessionRequests answers the requests on a session channel and closes
// shell once the client asks for one. A pty is refused so the client keeps
// local echo and line editing.
func replySessionRequests(in <-chan *ssh.Request, shell chan<- struct{}) {
	opened := false
	for req := range in {
		switch req.Type {
		case "shell":
			req.Reply(!opened, nil)
			if !opened {
				opened = true
				close(shell)
			}
		case "env", "window-change":
			req.Reply(true, nil)
		default:
			req.Reply(false, nil)
		}
	}
}
