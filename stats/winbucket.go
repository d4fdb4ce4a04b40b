package stats

import "sort"

// WinBuckets
//
// 用來把單局贏倍定位到 DistReport 的位置 O(log n)
//
// 請勿修改預設值
//   - win區間: 贏倍區間 [0,0], (0,1), [1,2), [2,5), ..., [2000,10000), [10000, +inf)
type WinBuckets struct {
	winBucket    []float64
	winBucketStr []string
}

// Buckets 預設分桶
var Buckets *WinBuckets = &WinBuckets{
	winBucket:    []float64{0, 1, 2, 5, 10, 20, 50, 100, 300, 500, 1000, 2000, 10000},
	winBucketStr: []string{"[0,0]", "(0,1)", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,300)", "[300,500)", "[500,1000)", "[1000,2000)", "[2000,10000)", "[10000,+inf)"},
}

func (b *WinBuckets) WinBucketStr() []string {
	return b.winBucketStr
}

// Len 分桶數量
func (b *WinBuckets) Len() int {
	return len(b.winBucketStr)
}

// Index 回傳贏倍 mult（獎金 / 下注）所屬的分桶。
//
// 0 與負值（理論上不會出現）都落在 [0,0]。
func (b *WinBuckets) Index(mult float64) int {
	if mult <= 0 {
		return 0
	}
	// 第一個 > mult 的邊界；邊界本身屬於右側區間
	return sort.Search(len(b.winBucket), func(i int) bool { return b.winBucket[i] > mult })
}
