package global

import (
	"github.com/kbaselabs/knowledge-sync-service/pkg/fileurl"
)

var (
	// 程序执行目录
	ROOT string
	Name string = "Knowledge Sync Service"
)

func init() {

	filename := fileurl.GetExePath()
	ROOT = filename + "/"

}
