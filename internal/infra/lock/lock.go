package lock

import (
	"errors"
	"sort"
)

// ErrBusy はロック待ちがタイムアウト（またはキャンセル）したとき
var ErrBusy = errors.New("lock: resource busy")

// 重複を除いてソートする（常に同じ順で取ってデッドロックを避ける）
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
