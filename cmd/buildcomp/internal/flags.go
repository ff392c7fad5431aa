package internal

import "flag"

// ParseArgs 解析 flag，允许 flag 与位置参数交错出现（如 "match a.yaml -explain"）。
// 返回按原顺序收集的位置参数；"--" 之后的参数全部视为位置参数。
func ParseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
