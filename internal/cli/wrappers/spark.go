package wrappers

func sparkWrappers() []passthrough {
	return []passthrough{
		{
			use:   "spark-submit",
			short: "Run spark-submit on YARN with the stack environment",
			long: `Run spark-submit with the computed environment. spark-defaults.conf
points the master at YARN and the event log at hdfs:///spark-logs.`,
			argv: fixed("spark-submit"),
		},
		{
			use:   "pyspark",
			short: "Run PySpark with the stack environment",
			argv:  fixed("pyspark"),
		},
	}
}
