package semid

// alias maps a name as it appears in titles (often in native script) to the
// canonical token used in identifiers.
type alias struct {
	name  string
	token string
}

// Lists are scanned in order and the first hit wins, so more specific entries
// must come before broader ones.

var organizationAliases = []alias{
	{"百度", "baidu"},
	{"阿里", "alibaba"},
	{"阿里巴巴", "alibaba"},
	{"哔哩哔哩", "bilibili"},
	{"华为", "huawei"},
	{"小米", "xiaomi"},
	{"深度求索", "deepseek"},
	{"文心一言", "yiyan"},
	{"openai", "openai"},
	{"google", "google"},
	{"microsoft", "microsoft"},
	{"meta", "meta"},
	{"tesla", "tesla"},
	{"deepseek", "deepseek"},
}

var organizationPatterns = []string{
	"openai", "chatgpt", "google", "gemini", "microsoft", "copilot", "meta", "llama",
	"tesla", "nvidia", "amd", "intel", "apple", "amazon", "aws", "anthropic", "claude",
	"baidu", "ernie", "alibaba", "tencent", "huawei", "samsung", "ibm", "oracle",
	"tsinghua", "thudm", "清华大学", "华为", "百度", "阿里巴巴", "腾讯",
}

var productAliases = []alias{
	{"文心一言", "yiyan"},
	{"chatgpt", "chatgpt"},
	{"gemini", "gemini"},
	{"copilot", "copilot"},
	{"llama", "llama"},
	{"optimus", "optimus"},
	{"昇腾", "ascend"},
	{"芯片", "chip"},
}

var productPatterns = []string{
	"gpt", "dall-e", "midjourney", "stable diffusion", "bard", "palm", "bert",
	"tensorflow", "pytorch", "keras", "transformers", "huggingface", "langchain",
	"autogpt", "agentgpt", "babyagi", "pinecone", "weaviate", "chroma",
	"llama", "mistral", "falcon", "bloom", "opt", "t5", "blenderbot",
	"claude", "anthropic", "cohere", "ai21", "stability", "runway",
	"replicate", "together", "banana", "modal", "beam", "vast", "lambda",
	"cerebras", "graphcore", "sambanova", "groq", "mythic", "tenstorrent",
}

var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "with": true, "by": true, "of": true, "a": true, "an": true,
}
