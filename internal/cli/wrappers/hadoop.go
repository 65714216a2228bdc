package wrappers

func hadoopWrappers() []passthrough {
	return []passthrough{
		{
			use:   "hdfs",
			short: "Run hdfs commands with the stack environment",
			long: `Run hdfs with the computed environment.

Examples:
  bigdata hdfs dfs -ls /
  bigdata hdfs dfsadmin -report`,
			argv: fixed("hdfs"),
		},
		{
			use:   "yarn",
			short: "Run yarn commands with the stack environment",
			long: `Run yarn with the computed environment.

Examples:
  bigdata yarn node -list
  bigdata yarn application -list`,
			argv: fixed("yarn"),
		},
		{
			use:   "hadoop",
			short: "Run hadoop commands with the stack environment",
			argv:  fixed("hadoop"),
		},
	}
}
