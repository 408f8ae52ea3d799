package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/slog"
)

func Mkdir(dirName string) error {
	if _, err := os.Stat(dirName); os.IsNotExist(err) {
		err := os.MkdirAll(dirName, 0775)
		if err != nil {
			return fmt.Errorf("mkdir(%s) -> %w", dirName, err)
		}
	}
	return nil
}

func TimeCost() func(str string) {
	//计算耗时
	bts := time.Now()
	return func(str string) {
		slog.Infof("%s, cost %.2fs", str, time.Since(bts).Seconds())
	}
}

func InSlice[T comparable](target T, list []T) bool {
	for i := range list {
		if target == list[i] {
			return true
		}
	}
	return false
}

// Filter keeps the items of list that are not in skip, preserving order.
func Filter[T comparable](list, skip []T) []T {
	res := make([]T, 0, len(list))
	for _, v := range list {
		if !InSlice(v, skip) {
			res = append(res, v)
		}
	}
	return res
}

func WriteFile(filename string, data []byte) error {
	//写入文件
	if dir := filepath.Dir(filename); dir != "." {
		if err := Mkdir(dir); err != nil {
			return err
		}
	}
	err := os.WriteFile(filename, data, 0664)
	if err != nil {
		return fmt.Errorf("WriteFile(%s) -> %w", filename, err)
	}
	return nil
}

func QuoteAndJoin(list []string, quote func(string) string) string {
	quoted := make([]string, len(list))
	for i, v := range list {
		quoted[i] = quote(v)
	}
	return strings.Join(quoted, ", ")
}

// EncloseStr wraps s in mark, doubling any mark inside s.
func EncloseStr(s, mark string) string {
	return mark + strings.ReplaceAll(s, mark, mark+mark) + mark
}
