/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// StatusProvider exposes read-only snapshots of the shared-state tables
// for the embedded HTTP surface — the Go-native analogue of the X-toolkit
// viewers (afd_ctrl, mon_ctrl, show_*) named out of scope in spec.md §1.
// init-afd registers the live provider once C3/C4/C6/C7 are attached;
// until then routes answer 503 rather than panic.
type StatusProvider interface {
	HostStatus() (interface{}, error)
	DirectoryStatus() (interface{}, error)
	QueueStatus() (interface{}, error)
	MonitorStatus() (interface{}, error)
}

var (
	providerMu sync.RWMutex
	provider   StatusProvider
)

// RegisterStatusProvider wires the live FSA/FRA/queue/MSA snapshot source.
func RegisterStatusProvider(p StatusProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

func currentProvider() StatusProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

func registerStatusRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	{
		v1.GET("/hosts", withProvider(func(p StatusProvider) (interface{}, error) { return p.HostStatus() }))
		v1.GET("/directories", withProvider(func(p StatusProvider) (interface{}, error) { return p.DirectoryStatus() }))
		v1.GET("/queue", withProvider(func(p StatusProvider) (interface{}, error) { return p.QueueStatus() }))
		v1.GET("/monitor", withProvider(func(p StatusProvider) (interface{}, error) { return p.MonitorStatus() }))
	}
}

func withProvider(fn func(StatusProvider) (interface{}, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := currentProvider()
		if p == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "status provider not yet attached"})
			return
		}
		data, err := fn(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, data)
	}
}
