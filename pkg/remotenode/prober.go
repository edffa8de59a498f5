/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package remotenode

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"k8s.io/klog/v2"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/utils/concurrent"
)

const (
	// UnknownNumJobs is reported when the load probe fails. It keeps the
	// node eligible while pushing it behind every node that answered.
	UnknownNumJobs = 10000

	sshUser    = "root"
	sshPort    = 22
	sshTimeout = 30 * time.Second

	probeLimit = 8
)

// Status is the on-demand view of one remote build node. Nothing here is
// persisted; every read triggers a fresh probe.
type Status struct {
	Xname          string `json:"xname"`
	SshStatus      bool   `json:"ssh_status"`
	NodeArch       string `json:"node_arch,omitempty"`
	PodmanStatus   bool   `json:"podman_status"`
	NumCurrentJobs int    `json:"num_current_jobs"`
	AbleToRunJobs  bool   `json:"able_to_run_jobs"`
}

// Conn runs commands on an open connection to one node.
type Conn interface {
	Run(command string) (string, error)
	Close() error
}

// Dialer opens a connection to the node with the given xname.
type Dialer func(xname string) (Conn, error)

// Prober determines whether remote build nodes can accept work.
type Prober struct {
	dial Dialer
}

func NewProber() *Prober {
	return &Prober{dial: sshDial}
}

// NewProberWithDialer is intended for tests.
func NewProberWithDialer(dial Dialer) *Prober {
	return &Prober{dial: dial}
}

// Probe opens a connection to the node and runs the arch, toolchain and load
// checks. A node can run jobs when the connection opened, the arch resolved
// and podman is installed. A failed load count only degrades to the sentinel.
func (p *Prober) Probe(xname string) *Status {
	status := &Status{Xname: xname, NumCurrentJobs: UnknownNumJobs}
	conn, err := p.dial(xname)
	if err != nil {
		klog.ErrorS(err, "remote build node is unreachable", "xname", xname)
		return status
	}
	defer conn.Close()
	status.SshStatus = true

	if out, err := conn.Run("uname -m"); err == nil {
		switch {
		case strings.Contains(out, records.ArchAarch64):
			status.NodeArch = records.ArchAarch64
		case strings.Contains(out, "x86"):
			status.NodeArch = records.ArchX8664
		}
	} else {
		klog.ErrorS(err, "arch probe failed", "xname", xname)
	}

	if out, err := conn.Run("command -v podman"); err == nil {
		status.PodmanStatus = strings.Contains(out, "/usr/bin/podman")
	} else {
		klog.ErrorS(err, "podman probe failed", "xname", xname)
	}

	countCmd := fmt.Sprintf("find %s -maxdepth 1 -name 'ims_*' 2>/dev/null | wc -l",
		commonconfig.GetRemoteScratchPath())
	if out, err := conn.Run(countCmd); err == nil {
		if count, convErr := strconv.Atoi(strings.TrimSpace(out)); convErr == nil {
			status.NumCurrentJobs = count
		}
	} else {
		klog.ErrorS(err, "job count probe failed", "xname", xname)
	}

	status.AbleToRunJobs = status.SshStatus && status.NodeArch != "" && status.PodmanStatus
	return status
}

// ProbeAll probes every node with bounded parallelism. Results keep the
// order of the input slice.
func (p *Prober) ProbeAll(xnames []string) []*Status {
	results := make([]*Status, len(xnames))
	concurrent.ExecIndexed(len(xnames), probeLimit, func(i int) {
		results[i] = p.Probe(xnames[i])
	})
	return results
}

type sshConn struct {
	client *ssh.Client
}

func (c *sshConn) Run(command string) (string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", err
	}
	return runCommand(session, command, sshTimeout)
}

// commandSession is the slice of ssh.Session the runner needs.
type commandSession interface {
	Output(command string) ([]byte, error)
	Close() error
}

// runCommand runs the command with a deadline. The session is closed when the
// timer fires, so a remote that accepted the connection but hangs on a command
// cannot stall the probe.
func runCommand(session commandSession, command string, timeout time.Duration) (string, error) {
	defer session.Close()
	timer := time.AfterFunc(timeout, func() { session.Close() })
	defer timer.Stop()
	out, err := session.Output(command)
	return string(out), err
}

func (c *sshConn) Close() error {
	return c.client.Close()
}

func sshDial(xname string) (Conn, error) {
	sshConfig, err := loadSshConfig()
	if err != nil {
		return nil, err
	}
	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", xname, sshPort), sshConfig)
	if err != nil {
		return nil, fmt.Errorf("ssh client failed to connect: %v", err)
	}
	return &sshConn{client: client}, nil
}

func loadSshConfig() (*ssh.ClientConfig, error) {
	keyData, err := os.ReadFile(commonconfig.GetPrivateKeyPath())
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, err
	}
	return &ssh.ClientConfig{
		User:            sshUser,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sshTimeout,
	}, nil
}
