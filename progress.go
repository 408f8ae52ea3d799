package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"migrateData/model"
)

// progressObserver draws one bar per table on stderr.
type progressObserver struct {
	bar *progressbar.ProgressBar
}

func (self *progressObserver) TableStarted(table string, total int64) {
	self.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("%-30s", table)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}

func (self *progressObserver) ChunkCopied(chunk model.ChunkSpec, rows int64) {
	if self.bar != nil {
		_ = self.bar.Add64(rows)
	}
}

func (self *progressObserver) TableFinished(res model.CopyResult) {
	if self.bar == nil {
		return
	}
	if res.Status == model.StatusSuccess {
		_ = self.bar.Finish()
	} else {
		_ = self.bar.Clear()
	}
	self.bar = nil
}
