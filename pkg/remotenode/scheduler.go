/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package remotenode

import (
	"os"

	"golang.org/x/crypto/ssh"
	"k8s.io/klog/v2"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	"github.com/Cray-HPE/ims/pkg/records"
)

// Scheduler selects the remote build node a job should land on.
type Scheduler struct {
	prober *Prober
	nodes  *records.Store[*records.RemoteBuildNode]
}

func NewScheduler(prober *Prober, nodes *records.Store[*records.RemoteBuildNode]) *Scheduler {
	return &Scheduler{prober: prober, nodes: nodes}
}

// Pick probes every registered node and returns the xname of the least
// loaded node matching the job's architecture. Ties go to the first node in
// registration order. An empty xname means the job runs in-cluster.
func (s *Scheduler) Pick(job *records.Job) string {
	if !privateKeyUsable() {
		klog.InfoS("remote build key is unavailable, job will run in-cluster", "job", job.Id)
		return ""
	}
	nodes := s.nodes.Iter()
	if len(nodes) == 0 {
		return ""
	}
	xnames := make([]string, 0, len(nodes))
	for _, node := range nodes {
		xnames = append(xnames, node.Xname)
	}

	var picked *Status
	for _, status := range s.prober.ProbeAll(xnames) {
		if !status.AbleToRunJobs || status.NodeArch != job.Arch {
			continue
		}
		if picked == nil || status.NumCurrentJobs < picked.NumCurrentJobs {
			picked = status
		}
	}
	if picked == nil {
		return ""
	}
	klog.InfoS("selected remote build node", "job", job.Id,
		"xname", picked.Xname, "currentJobs", picked.NumCurrentJobs)
	return picked.Xname
}

func privateKeyUsable() bool {
	keyData, err := os.ReadFile(commonconfig.GetPrivateKeyPath())
	if err != nil {
		return false
	}
	_, err = ssh.ParsePrivateKey(keyData)
	return err == nil
}
