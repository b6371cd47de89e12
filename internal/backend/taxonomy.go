package backend

// SkillCategory groups skills for hour estimates and roadmap phases.
type SkillCategory string

// CategoryLanguage and related constants define the taxonomy categories.
const (
	CategoryLanguage  SkillCategory = "language"
	CategoryFramework SkillCategory = "framework"
	CategoryTool      SkillCategory = "tool"
	CategoryDatabase  SkillCategory = "database"
	CategoryCloud     SkillCategory = "cloud"
)

// hoursToLearn is the estimated study time per category.
var hoursToLearn = map[SkillCategory]int{
	CategoryLanguage:  40,
	CategoryFramework: 30,
	CategoryCloud:     20,
	CategoryDatabase:  15,
	CategoryTool:      10,
}

// defaultHoursToLearn applies to categories outside hoursToLearn.
const defaultHoursToLearn = 15

// HoursToLearn returns the estimated study hours for a category.
func HoursToLearn(cat SkillCategory) int {
	if hours, ok := hoursToLearn[cat]; ok {
		return hours
	}
	return defaultHoursToLearn
}

var skillTaxonomy = map[SkillCategory][]string{
	CategoryLanguage: {
		"python", "javascript", "typescript", "java", "c++", "c#", "go", "golang",
		"rust", "ruby", "php", "swift", "kotlin", "scala", "r", "matlab", "dart",
		"perl", "bash", "shell", "powershell", "sql", "html", "css", "sass", "less",
		"objective-c", "groovy", "lua", "haskell", "erlang", "elixir", "clojure",
		"f#", "cobol", "fortran", "solidity", "assembly",
	},
	CategoryFramework: {
		"react", "angular", "vue", "svelte", "nextjs", "nuxtjs", "gatsby",
		"remix", "astro", "react native", "flutter", "ionic", "electron",
		"django", "flask", "fastapi", "spring", "spring boot", "express", "nestjs",
		"koa", "hapi", "laravel", "rails", "ruby on rails", "asp.net", ".net core",
		"blazor", "quarkus", "micronaut", "ktor",
		"pytorch", "tensorflow", "keras", "jax", "scikit-learn", "xgboost",
		"lightgbm", "catboost", "huggingface", "transformers", "langchain",
		"llamaindex", "pandas", "numpy", "scipy", "matplotlib", "seaborn",
		"plotly", "bokeh", "streamlit", "gradio",
		"bootstrap", "tailwind", "material ui", "chakra ui", "ant design", "shadcn",
		"redux", "zustand", "mobx", "graphql", "apollo", "trpc",
		"sqlalchemy", "alembic", "prisma", "mongoose", "typeorm", "hibernate",
		"junit", "pytest", "jest", "vitest", "cypress", "playwright", "selenium",
		"mocha", "chai", "storybook",
		"celery", "grpc", "opentelemetry",
	},
	CategoryTool: {
		"git", "github", "gitlab", "bitbucket",
		"docker", "kubernetes", "k8s", "helm",
		"jenkins", "github actions", "circleci", "travis ci", "teamcity",
		"argocd", "flux",
		"terraform", "pulumi", "ansible", "puppet", "chef", "vagrant",
		"nginx", "apache",
		"linux", "ubuntu", "centos", "debian",
		"jira", "confluence", "notion", "figma",
		"postman", "swagger", "openapi",
		"webpack", "vite", "babel", "eslint", "prettier",
		"sonarqube", "sentry", "grafana", "prometheus", "datadog", "splunk",
		"elasticsearch", "logstash", "kibana", "new relic",
		"airflow", "dbt", "mlflow", "wandb", "dvc", "ray",
		"kafka", "rabbitmq", "nats", "socket.io", "websockets",
		"oauth", "jwt", "keycloak", "vault",
		"istio", "envoy", "linkerd",
	},
	CategoryDatabase: {
		"mysql", "postgresql", "postgres", "sqlite", "mongodb", "cassandra",
		"couchdb", "dynamodb", "firestore", "firebase", "oracle", "mssql",
		"sql server", "mariadb", "neo4j", "influxdb", "clickhouse", "snowflake",
		"bigquery", "hive", "redis",
		"pinecone", "weaviate", "chroma", "qdrant",
		"supabase", "planetscale", "neon", "fauna",
	},
	CategoryCloud: {
		"aws", "azure", "gcp", "google cloud", "heroku", "digitalocean",
		"vercel", "netlify", "cloudflare", "linode", "vultr",
		"ec2", "s3", "lambda", "rds", "eks", "ecs", "fargate", "sqs", "sns",
		"api gateway", "amplify",
		"azure functions", "azure devops", "azure aks",
		"cloud run", "app engine", "gke", "cloud functions", "firebase hosting",
	},
}

// skillAliases maps common spellings to their canonical taxonomy name.
// Some targets are not in the taxonomy and are dropped by the extractor.
var skillAliases = map[string]string{
	"react.js": "react", "reactjs": "react", "react js": "react",
	"vue.js": "vue", "vuejs": "vue", "vue js": "vue",
	"next.js": "nextjs", "next js": "nextjs",
	"nuxt.js": "nuxtjs", "nuxt js": "nuxtjs",
	"nest.js": "nestjs",
	"node.js": "nodejs", "node js": "nodejs",
	"express.js": "express", "expressjs": "express",
	"scikit learn": "scikit-learn", "sklearn": "scikit-learn",
	"tf":    "tensorflow",
	"torch": "pytorch",
	"postgres": "postgresql", "pg": "postgresql",
	"mongo": "mongodb", "mongo db": "mongodb",
	"ms sql": "mssql", "microsoft sql server": "sql server",
	"amazon web services":   "aws",
	"google cloud platform": "gcp",
	"microsoft azure":       "azure",
	"k8s":                   "kubernetes",
	"js": "javascript", "ts": "typescript",
	"py":      "python",
	"c sharp": "c#", "c plus plus": "c++",
	"tailwindcss": "tailwind", "tailwind css": "tailwind",
	"material-ui": "material ui", "mui": "material ui",
	"gh actions": "github actions",
	"ci cd": "ci/cd", "cicd": "ci/cd",
	"rest api": "rest", "restful": "rest", "rest apis": "rest",
	"spring-boot": "spring boot",
}

var skillCategories = buildSkillCategories()

func buildSkillCategories() map[string]SkillCategory {
	out := map[string]SkillCategory{}
	for cat, skills := range skillTaxonomy {
		for _, skill := range skills {
			out[skill] = cat
		}
	}
	return out
}

// CategoryOf returns the taxonomy category of a skill, defaulting to tool.
func CategoryOf(skill string) SkillCategory {
	if cat, ok := skillCategories[canonicalSkill(skill)]; ok {
		return cat
	}
	return CategoryTool
}

// IsKnownSkill reports whether the canonical form of skill is in the taxonomy.
func IsKnownSkill(skill string) bool {
	_, ok := skillCategories[canonicalSkill(skill)]
	return ok
}
