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

package status

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stratastor/afd/internal/constants"
)

// NewStatusCmd reports whether init-afd's PID file exists — a
// coarse probe distinct from fra_view/afdcfg's detailed FSA/FRA dumps,
// which live on pkg/fsa and pkg/fra once those tables are attached.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the afd daemon is running",
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := os.Stat(constants.AfdPIDFilePath); err == nil {
				fmt.Println("afd is running")
			} else {
				fmt.Println("afd is not running")
			}
		},
	}
}
