package internal

import (
	"fmt"
	"os"

	"github.com/DreamCats/buildcomp/internal/config"
)

// LoadConfig 读取配置：指定路径时必须存在，否则读取默认路径，默认文件缺失时使用内置默认值。
// 返回填充后的 *config.Config 或解析错误。
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample 向 stderr 打印一份配置示例及 init 命令提示。
func PrintConfigExample() {
	configPath, err := config.DefaultPath()
	if err != nil {
		configPath = "~/.buildcomp/config/buildcomp.yaml"
	}

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s, or run: buildcomp init

workspace:
  settings_file: settings.gradle.kts
  build_file: build.gradle.kts

formatter:
  # rules_file: formatter-rules.yaml   # replaces the spotless rules of the root build script
  exclude_dirs: [.git, .gradle, build, node_modules]
  use_gitignore: true

history:
  enabled: true
  keep: 50

search:
  default_limit: 10
`, configPath)
}
