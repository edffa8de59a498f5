/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package main

import (
	"fmt"

	"github.com/Cray-HPE/ims/pkg/server"
)

func main() {
	s, err := server.NewServer()
	if err != nil {
		fmt.Println("failed to new server, err: ", err.Error())
		return
	}
	s.Start()
}
