// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// importProgress reports how many entries an import has written so far.
// A nil writer disables output.
type importProgress struct {
	mu        sync.Mutex
	w         io.Writer
	total     int
	done      int
	failed    int
	every     int
	lastShown int
	start     time.Time
}

func newImportProgress(w io.Writer, total, every int) *importProgress {
	if every <= 0 {
		every = 1
	}
	return &importProgress{w: w, total: total, every: every, start: time.Now()}
}

// record counts one finished entry.
func (p *importProgress) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if err != nil {
		p.failed++
	}
	if p.done-p.lastShown >= p.every {
		p.report()
		p.lastShown = p.done
	}
}

// finish prints the final line.
func (p *importProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.w == nil {
		return
	}
	p.report()
	fmt.Fprintln(p.w)
}

func (p *importProgress) counts() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

// report must be called with the lock held.
func (p *importProgress) report() {
	if p.w == nil {
		return
	}
	rate := float64(p.done) / time.Since(p.start).Seconds()
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100.0
	}
	fmt.Fprintf(p.w, "\rImported %d/%d (%.1f%%, %d failed) - %.1f entries/s",
		p.done, p.total, pct, p.failed, rate)
}
